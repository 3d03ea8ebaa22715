package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/projectaghoy/aghoy/internal/infra/llm"
)

// GatewayBase is the Cloudflare AI Gateway root. Provider traffic is sent to
// {GatewayBase}/{account}/{gateway}/{slug} when gateway routing is enabled.
const GatewayBase = "https://gateway.ai.cloudflare.com/v1"

// Catalog is the PROVIDERS_FILE document.
type Catalog struct {
	Providers []CatalogEntry `yaml:"providers"`
}

// CatalogEntry declares one provider. Credentials are never stored in the
// file; CredentialEnv names the variable that holds the key.
type CatalogEntry struct {
	Name          string `yaml:"name"`
	Kind          string `yaml:"kind"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	CredentialEnv string `yaml:"credential_env"`
	GatewaySlug   string `yaml:"gateway_slug"`
	Priority      int    `yaml:"priority"`

	credential string // built-in entries carry the key loaded into Config
}

// ParseCatalog decodes a YAML provider catalog. Unknown keys are rejected.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("config: parse provider catalog: %w", err)
	}
	for i, p := range c.Providers {
		if p.Name == "" {
			return nil, fmt.Errorf("config: provider catalog entry %d: name is required", i)
		}
		switch llm.Kind(p.Kind) {
		case llm.KindOpenAI, llm.KindOllama:
		default:
			return nil, fmt.Errorf("config: provider %q: unknown kind %q", p.Name, p.Kind)
		}
	}
	return &c, nil
}

// Providers builds the priority-ordered provider list. Without PROVIDERS_FILE
// it is Cerebras, then Groq, then a local Ollama when OLLAMA_BASE_URL is set.
// Incomplete gateway settings or an unreadable catalog yield a
// *llm.ConfigurationError.
func (c Config) Providers() ([]llm.ProviderConfig, error) {
	gateway, err := c.gatewayRoot()
	if err != nil {
		return nil, err
	}

	entries := c.builtinCatalog()
	if c.ProvidersFile != "" {
		data, err := os.ReadFile(c.ProvidersFile)
		if err != nil {
			return nil, &llm.ConfigurationError{Reason: fmt.Sprintf("read PROVIDERS_FILE: %v", err)}
		}
		cat, err := ParseCatalog(data)
		if err != nil {
			return nil, &llm.ConfigurationError{Reason: err.Error()}
		}
		entries = cat.Providers
	}

	out := make([]llm.ProviderConfig, 0, len(entries))
	for _, e := range entries {
		base := e.BaseURL
		if gateway != "" && e.GatewaySlug != "" {
			base = gateway + "/" + strings.Trim(e.GatewaySlug, "/")
		}
		raw := e.credential
		if raw == "" && e.CredentialEnv != "" {
			raw = os.Getenv(e.CredentialEnv)
		}
		cred := llm.SanitizeKey(raw)
		out = append(out, llm.ProviderConfig{
			Name:       e.Name,
			Kind:       llm.Kind(e.Kind),
			BaseURL:    base,
			Model:      e.Model,
			Credential: cred,
			Priority:   e.Priority,
		})
	}
	return out, nil
}

// gatewayRoot returns "" when gateway routing is off. Setting only one of the
// two identifiers is a configuration error, not a silent direct route.
func (c Config) gatewayRoot() (string, error) {
	account := strings.TrimSpace(c.CFAccountID)
	gateway := strings.TrimSpace(c.CFGatewayID)
	switch {
	case account == "" && gateway == "":
		return "", nil
	case account == "" || gateway == "":
		return "", &llm.ConfigurationError{Reason: "CF_ACCOUNT_ID and CF_GATEWAY_ID must be set together"}
	}
	return fmt.Sprintf("%s/%s/%s", GatewayBase, account, gateway), nil
}

func (c Config) builtinCatalog() []CatalogEntry {
	entries := []CatalogEntry{
		{
			Name:          "cerebras",
			Kind:          string(llm.KindOpenAI),
			BaseURL:       llm.CerebrasBaseURL,
			Model:         c.CerebrasModel,
			CredentialEnv: envKeyCerebrasAPIKey,
			GatewaySlug:   "cerebras",
			Priority:      1,
			credential:    c.CerebrasAPIKey,
		},
		{
			Name:          "groq",
			Kind:          string(llm.KindOpenAI),
			BaseURL:       llm.GroqBaseURL,
			Model:         c.GroqModel,
			CredentialEnv: envKeyGroqAPIKey,
			GatewaySlug:   "groq",
			Priority:      2,
			credential:    c.GroqAPIKey,
		},
	}
	if c.OllamaBaseURL != "" {
		entries = append(entries, CatalogEntry{
			Name:     "ollama",
			Kind:     string(llm.KindOllama),
			BaseURL:  c.OllamaBaseURL,
			Model:    c.OllamaChatModel,
			Priority: 3,
		})
	}
	return entries
}
