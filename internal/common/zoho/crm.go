package zoho

import (
	"context"
	"fmt"
	"strings"
	"time"

	httpclient "submission-intake/internal/common/http"
)

// CRMClient creates leads in Zoho CRM.
type CRMClient struct {
	client *httpclient.Client
}

// Lead is the subset of Zoho's Leads module we populate.
type Lead struct {
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Email       string `json:"Email"`
	Phone       string `json:"Phone,omitempty"`
	Company     string `json:"Company,omitempty"`
	Description string `json:"Description,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
}

type createResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, oauthToken string, timeout time.Duration) *CRMClient {
	return &CRMClient{
		client: httpclient.NewClient(timeout,
			httpclient.WithBaseURL(baseURL),
			httpclient.WithHeader("Authorization", "Zoho-oauthtoken "+oauthToken),
		),
	}
}

// SplitName splits a full name into first and last name; Zoho requires Last_Name.
func SplitName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// CreateLead creates a single lead and returns its Zoho id.
func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	payload := map[string]interface{}{
		"data": []Lead{*lead},
	}

	var resp createResponse
	if err := c.client.PostJSON(ctx, "Leads", payload, &resp); err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}

	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}
	if resp.Data[0].Status != "success" {
		return "", fmt.Errorf("lead creation failed: %s", resp.Data[0].Message)
	}

	return resp.Data[0].Details.ID, nil
}
