package leadapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"leaddesk/backend/models"
)

// credentialsMessage appears in the API answer when the mobile number or password is wrong.
const credentialsMessage = "Invalid credentials"

type loginRequest struct {
	MobileNumber string `json:"mobileNumber"`
	Password     string `json:"password"`
}

// Login exchanges a mobile number and password for an employee identity and bearer token.
// A rejection of the credentials is reported as ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, mobileNumber, password string) (models.Employee, error) {
	var emp models.Employee
	err := c.do(ctx, http.MethodPost, "/api/login", nil, loginRequest{
		MobileNumber: mobileNumber,
		Password:     password,
	}, &emp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && strings.Contains(apiErr.Message, credentialsMessage) {
			return models.Employee{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message)
		}
		return models.Employee{}, err
	}
	if err := c.check(&emp); err != nil {
		return models.Employee{}, err
	}
	return emp, nil
}
