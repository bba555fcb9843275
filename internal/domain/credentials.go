package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// RESTCredentials is the shared credential shape for the REST-style
// providers (woocommerce, hepsiburada, n11, pazarama).
type RESTCredentials struct {
	BaseURL        string `json:"baseUrl"`
	ConsumerKey    string `json:"consumerKey"`
	ConsumerSecret string `json:"consumerSecret"`
}

// TrendyolCredentials is Trendyol's seller/integrator credential shape.
type TrendyolCredentials struct {
	SellerID           string `json:"sellerId"`
	IntegrationRefCode string `json:"integrationRefCode,omitempty"`
	APIKey             string `json:"apiKey"`
	APISecret          string `json:"apiSecret"`
	Token              string `json:"token,omitempty"`
}

// Credentials is the per-provider credential union. Exactly one of the
// variant fields is set, matching Provider.
type Credentials struct {
	Provider Provider             `json:"provider"`
	REST     *RESTCredentials     `json:"rest,omitempty"`
	Trendyol *TrendyolCredentials `json:"trendyol,omitempty"`
}

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// normalizeBaseURL prepends https:// when the scheme is missing and strips
// trailing slashes.
func normalizeBaseURL(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if !schemeRe.MatchString(v) {
		v = "https://" + v
	}
	return strings.TrimRight(v, "/")
}

// ParseCredentials builds the typed union for a provider from an untyped
// payload, normalizing fields before they reach the vault.
func ParseCredentials(p Provider, raw map[string]any) (Credentials, error) {
	str := func(key string) string {
		v, _ := raw[key].(string)
		return strings.TrimSpace(v)
	}

	creds := Credentials{Provider: p}
	if p.UsesRESTCredentials() {
		creds.REST = &RESTCredentials{
			BaseURL:        normalizeBaseURL(str("baseUrl")),
			ConsumerKey:    str("consumerKey"),
			ConsumerSecret: str("consumerSecret"),
		}
		return creds, nil
	}

	creds.Trendyol = &TrendyolCredentials{
		SellerID:           str("sellerId"),
		IntegrationRefCode: str("integrationRefCode"),
		APIKey:             str("apiKey"),
		APISecret:          str("apiSecret"),
		Token:              str("token"),
	}
	return creds, nil
}

// DecodeCredentials parses the decrypted JSON blob back into the union and
// checks the variant matches the connection's provider.
func DecodeCredentials(p Provider, plaintext string) (Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal([]byte(plaintext), &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	if creds.Provider == "" {
		creds.Provider = p
	}
	if creds.Provider != p {
		return Credentials{}, fmt.Errorf("%w: credentials stored for %s, connection is %s", ErrValidation, creds.Provider, p)
	}
	if p.UsesRESTCredentials() && creds.REST == nil {
		creds.REST = &RESTCredentials{}
	}
	if !p.UsesRESTCredentials() && creds.Trendyol == nil {
		creds.Trendyol = &TrendyolCredentials{}
	}
	return creds, nil
}

// Encode serializes the union for encryption.
func (c Credentials) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode credentials: %w", err)
	}
	return string(b), nil
}

// Merge overlays patch onto c keeping any field the patch left blank.
// Updating only the base URL must never wipe a previously stored secret.
func (c Credentials) Merge(patch Credentials) Credentials {
	keep := func(prev, next string) string {
		if strings.TrimSpace(next) == "" {
			return prev
		}
		return next
	}

	merged := Credentials{Provider: c.Provider}
	switch {
	case c.REST != nil:
		p := patch.REST
		if p == nil {
			p = &RESTCredentials{}
		}
		merged.REST = &RESTCredentials{
			BaseURL:        keep(c.REST.BaseURL, p.BaseURL),
			ConsumerKey:    keep(c.REST.ConsumerKey, p.ConsumerKey),
			ConsumerSecret: keep(c.REST.ConsumerSecret, p.ConsumerSecret),
		}
	case c.Trendyol != nil:
		p := patch.Trendyol
		if p == nil {
			p = &TrendyolCredentials{}
		}
		merged.Trendyol = &TrendyolCredentials{
			SellerID:           keep(c.Trendyol.SellerID, p.SellerID),
			IntegrationRefCode: keep(c.Trendyol.IntegrationRefCode, p.IntegrationRefCode),
			APIKey:             keep(c.Trendyol.APIKey, p.APIKey),
			APISecret:          keep(c.Trendyol.APISecret, p.APISecret),
			Token:              keep(c.Trendyol.Token, p.Token),
		}
	default:
		merged = patch
		merged.Provider = c.Provider
	}
	return merged
}

// MaskSecret renders a secret as eight asterisks plus its last four
// characters. Empty secrets stay empty.
func MaskSecret(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	last := v
	if len(v) > 4 {
		last = v[len(v)-4:]
	}
	return strings.Repeat("*", 8) + last
}

// MaskedView is the credential display shape for admin responses. It never
// carries plaintext secrets.
type MaskedView struct {
	BaseURL      string `json:"baseUrl,omitempty"`
	SellerID     string `json:"sellerId,omitempty"`
	KeyMasked    string `json:"keyMasked"`
	SecretMasked string `json:"secretMasked"`
}

// Masked returns the display view for the union.
func (c Credentials) Masked() MaskedView {
	switch {
	case c.REST != nil:
		return MaskedView{
			BaseURL:      c.REST.BaseURL,
			KeyMasked:    MaskSecret(c.REST.ConsumerKey),
			SecretMasked: MaskSecret(c.REST.ConsumerSecret),
		}
	case c.Trendyol != nil:
		return MaskedView{
			SellerID:     c.Trendyol.SellerID,
			KeyMasked:    MaskSecret(c.Trendyol.APIKey),
			SecretMasked: MaskSecret(c.Trendyol.APISecret),
		}
	}
	return MaskedView{}
}

// PlainMap flattens the union into the provider-shaped key/value form
// agents consume. Blank optional fields are omitted. This is the only
// surface that exposes plaintext secrets; it sits behind agent auth.
func (c Credentials) PlainMap() map[string]string {
	out := map[string]string{}
	put := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	switch {
	case c.REST != nil:
		put("baseUrl", c.REST.BaseURL)
		put("consumerKey", c.REST.ConsumerKey)
		put("consumerSecret", c.REST.ConsumerSecret)
	case c.Trendyol != nil:
		put("sellerId", c.Trendyol.SellerID)
		put("integrationRefCode", c.Trendyol.IntegrationRefCode)
		put("apiKey", c.Trendyol.APIKey)
		put("apiSecret", c.Trendyol.APISecret)
		put("token", c.Trendyol.Token)
	}
	return out
}

// Hint builds the stored display hint for a connection.
func (c Credentials) Hint() string {
	m := c.Masked()
	switch {
	case m.BaseURL != "" && m.KeyMasked != "":
		return m.BaseURL + " " + m.KeyMasked
	case m.BaseURL != "":
		return m.BaseURL
	case m.SellerID != "" && m.KeyMasked != "":
		return m.SellerID + " " + m.KeyMasked
	default:
		return m.KeyMasked
	}
}
