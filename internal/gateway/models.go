package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/inboxpilot/ai-gateway/internal/sigv4"
)

// FoundationModel is one entry from the Bedrock foundation-model catalog.
type FoundationModel struct {
	ModelID      string
	ProviderName string
}

// ListFoundationModels fetches the Bedrock foundation-model catalog for the
// call's region with a signed GET. This is the only non-POST call the
// gateway makes.
func (g *Gateway) ListFoundationModels(ctx context.Context, cfg CallConfig) ([]FoundationModel, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	endpoint := fmt.Sprintf("https://bedrock.%s.amazonaws.com/foundation-models", region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, configErr("failed to create model listing request: %v", err)
	}

	if cfg.APIKey == "" {
		creds, err := sigv4.ChainCredentials(ctx, region)
		if err != nil {
			return nil, authErr(err, "no bedrock credentials available")
		}
		if err := signGet(req, creds, region, g); err != nil {
			return nil, err
		}
	} else {
		creds, mode, err := sigv4.ParseCredentials(cfg.APIKey)
		if err != nil {
			return nil, authErr(err, "failed to decode bedrock credentials")
		}
		if mode == sigv4.AuthBearer {
			req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
		} else if err := signGet(req, creds, region, g); err != nil {
			return nil, err
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model listing request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read model listing response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body, false)
	}

	var models []FoundationModel
	gjson.GetBytes(body, "modelSummaries").ForEach(func(_, v gjson.Result) bool {
		models = append(models, FoundationModel{
			ModelID:      v.Get("modelId").String(),
			ProviderName: v.Get("providerName").String(),
		})
		return true
	})
	return models, nil
}

func signGet(req *http.Request, creds sigv4.Credentials, region string, g *Gateway) error {
	signed, err := sigv4.Sign(http.MethodGet, req.URL.String(), nil, creds, region, g.now(), nil)
	if err != nil {
		return authErr(err, "failed to sign model listing request")
	}
	for k, v := range signed.Headers {
		if k == "Host" {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}
	return nil
}
