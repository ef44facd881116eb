/**
 * @description
 * This package implements gateway adapters for the Network Merchants style
 * payment protocol: one blocking URL-form-encoded HTTP POST per transaction,
 * with the reply parsed as flat key/value pairs. The card, ACH and token
 * gateways share the wire plumbing in this file and differ only in how they
 * validate accounts and build parameters.
 *
 * Response interpretation is canonical across all three: response=1 is
 * Approved, response=2 is Declined, anything else (including transport
 * failures, which are synthesized as response=3) is Error.
 *
 * @dependencies
 * - net/http, net/url: wire transport and form encoding.
 * - pkg/transactor: the contract these gateways plug into.
 */

package nmi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pocomos/transactor/pkg/transactor"
)

// DefaultPostURL is the gateway endpoint used when no post_url option is
// configured.
const DefaultPostURL = "https://secure.networkmerchants.com/api/transact.php"

// RedactedValue replaces sensitive request values during result filtering.
const RedactedValue = "[filtered]"

// gatewayErrorMessage is the fallback message used when the gateway reply
// carries no responsetext.
const gatewayErrorMessage = "An error occurred while processing the payment. Please try again."

// httpGateway holds the transport shared by the NMI gateway variants. The
// client is an explicit dependency; a nil client at construction time gets a
// default with a 30 second timeout. *http.Client is safe for concurrent use,
// so a single gateway instance may be shared across callers.
type httpGateway struct {
	client *http.Client
}

func newHTTPGateway(client *http.Client) httpGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return httpGateway{client: client}
}

// post issues the gateway call and returns the parsed reply. Transport-level
// failures never surface as errors; they are folded into a synthetic reply
// with response=3 and the failure detail under the message key.
func (g httpGateway) post(ctx context.Context, postURL string, params url.Values) map[string]string {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, strings.NewReader(params.Encode()))
	if err != nil {
		return transportFailure(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return transportFailure(fmt.Errorf("gateway returned status %d", resp.StatusCode))
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return transportFailure(fmt.Errorf("unparsable gateway reply: %w", err))
	}

	reply := make(map[string]string, len(values))
	for key := range values {
		reply[key] = values.Get(key)
	}
	return reply
}

func transportFailure(err error) map[string]string {
	return map[string]string{
		"response": "3",
		"message":  err.Error(),
	}
}

// finalizeResult applies the canonical response-code mapping and stores the
// full outbound parameter set and parsed reply in the result's data bag.
func finalizeResult(result *transactor.Result, params url.Values, reply map[string]string) {
	if reply["response"] == "1" {
		result.Status = transactor.StatusApproved
		result.ExternalID = reply["transactionid"]
	} else {
		if reply["response"] == "2" {
			result.Status = transactor.StatusDeclined
		} else {
			result.Status = transactor.StatusError
		}
		if text := reply["responsetext"]; text != "" {
			result.Message = text
		} else {
			result.Message = gatewayErrorMessage
		}
		if id := reply["transactionid"]; id != "" {
			result.ExternalID = id
		}
	}

	request := make(map[string]string, len(params))
	for key := range params {
		request[key] = params.Get(key)
	}
	result.SetData("request", request)
	result.SetData("response", reply)
}

// redactRequest replaces the values of the given keys in the result's stored
// request data with the redaction marker. Keys that are absent stay absent;
// all other keys are left untouched.
func redactRequest(result *transactor.Result, keys ...string) *transactor.Result {
	request := result.RequestData()
	if request == nil {
		return result
	}
	for _, key := range keys {
		if _, ok := request[key]; ok {
			request[key] = RedactedValue
		}
	}
	result.SetData("request", request)
	return result
}

// vaultToken extracts the customer vault id issued by a tokenization reply.
func vaultToken(result *transactor.Result) (string, bool) {
	reply := result.ResponseData()
	token := reply["customer_vault_id"]
	return token, token != ""
}

// validateCredentials enforces the username/password pair every NMI call
// requires.
func validateCredentials(tx *transactor.Transaction) error {
	credentials := tx.Credentials
	if credentials == nil {
		return transactor.ErrMissingCredentials()
	}
	if username, _ := credentials.Get("username"); username == "" {
		return transactor.ErrMissingRequiredParameter("username or password")
	}
	if password, _ := credentials.Get("password"); password == "" {
		return transactor.ErrMissingRequiredParameter("username or password")
	}
	return nil
}

// validateParent enforces that Capture/Refund/Void transactions reference a
// parent holding a prior gateway id.
func validateParent(tx *transactor.Transaction) error {
	if !tx.Type.RequiresParent() {
		return nil
	}
	if tx.Parent == nil || tx.Parent.Result().ExternalID == "" {
		return transactor.ErrParentTransactionRequired()
	}
	return nil
}

// baseParams builds the parameter set every NMI call starts from: the wire
// type, the merchant credentials, the parent gateway id for follow-up
// transactions and the amount for everything except void.
func baseParams(tx *transactor.Transaction, opts transactor.Options) url.Values {
	username, _ := tx.Credentials.Get("username")
	password, _ := tx.Credentials.Get("password")

	params := url.Values{}
	params.Set("type", string(tx.Type))
	params.Set("username", username)
	params.Set("password", password)

	if tx.Type.RequiresParent() {
		params.Set("transactionid", tx.Parent.Result().ExternalID)
	}
	if tx.Type != transactor.TypeVoid {
		params.Set("amount", formatAmount(tx.Amount))
	}
	if opts.Tokenize {
		params.Set("customer_vault", "add_customer")
	}
	return params
}

// formatAmount renders an amount in the smallest currency unit as the
// decimal string the gateway expects.
func formatAmount(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
