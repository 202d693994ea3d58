package lib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

// PaystackClient verifies collected payments by reference. It makes exactly
// one attempt per call; retrying is the caller's decision so an ambiguous
// provider response never flips local state.
type PaystackClient struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

var paystackClient *PaystackClient

func GetPaystackClient() *PaystackClient {
	if paystackClient != nil {
		return paystackClient
	}
	pc := &PaystackClient{
		BaseURL:   "https://api.paystack.co",
		SecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	paystackClient = pc
	return pc
}

// NewPaystackClient Replace paystack instance with custom client implementation
func NewPaystackClient(c *PaystackClient) *PaystackClient {
	paystackClient = c
	return paystackClient
}

// VerifyTransaction returns true only when Paystack reports the transaction
// as successful. A transport failure returns an error and the caller must
// treat the payment as unconfirmed.
func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (bool, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", c.BaseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.SecretKey))

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false, err
	}
	if !gjson.GetBytes(body, "status").Bool() {
		return false, nil
	}
	return gjson.GetBytes(body, "data.status").String() == "success", nil
}
