package publishers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/samvad-hq/samvad-news-importer/internal/registryfile"
)

const (
	// Supported publisher types.
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"
	TypeHTTP      = "http"
	TypeNATS      = "nats"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	GCP     *GCPQueueConfig      `json:"gcp_pubsub" yaml:"gcp_pubsub"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
	NATS    *NATSPublisherConfig `json:"nats" yaml:"nats"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL string `json:"uri" yaml:"uri"`
	Region   string `json:"region" yaml:"region"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn"`
	Region   string `json:"region" yaml:"region"`
}

// GCPQueueConfig holds Google Cloud Pub/Sub settings.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	// OrderByCategory publishes with the category as ordering key.
	OrderByCategory bool `json:"order_by_category" yaml:"order_by_category"`
}

// HTTPPublisherConfig holds generic HTTP sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// NATSPublisherConfig holds NATS core publish settings.
type NATSPublisherConfig struct {
	URL     string `json:"url" yaml:"url"`
	Subject string `json:"subject" yaml:"subject"`
}

// ConfigRegistry holds the validated publisher entries of one file.
type ConfigRegistry struct {
	index *registryfile.Index[PublisherConfig]
}

// LoadRegistry reads, sanitizes and validates the publishers file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	var parsed configFile
	if err := registryfile.Decode(path, "publishers", &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	list := make([]PublisherConfig, len(parsed.Publishers))
	for i, raw := range parsed.Publishers {
		cfg := sanitizePublisherConfig(raw)
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		list[i] = cfg
	}
	index, err := registryfile.NewIndex("publisher", list, func(c PublisherConfig) string { return c.ID })
	if err != nil {
		return nil, err
	}
	return &ConfigRegistry{index: index}, nil
}

// target is the per-type block of a publisher entry.
type target interface {
	normalize()
	validate() error
}

// sanitizePublisherConfig trims the entry and normalizes its target blocks.
func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}
	cfg.SQS = cloneTarget(cfg.SQS)
	cfg.SNS = cloneTarget(cfg.SNS)
	cfg.GCP = cloneTarget(cfg.GCP)
	cfg.HTTP = cloneTarget(cfg.HTTP)
	cfg.NATS = cloneTarget(cfg.NATS)
	return cfg
}

// cloneTarget copies the block so callers never see the raw decoded value mutate.
func cloneTarget[T any, PT interface {
	*T
	target
}](in PT) PT {
	if in == nil {
		return nil
	}
	out := PT(new(T))
	*out = *in
	out.normalize()
	return out
}

// targetFor returns the block matching the entry type and its yaml key.
func (cfg PublisherConfig) targetFor() (target, string, error) {
	var (
		t   target
		key string
	)
	switch cfg.Type {
	case TypeSQS:
		key = "sqs"
		if cfg.SQS != nil {
			t = cfg.SQS
		}
	case TypeSNS:
		key = "sns"
		if cfg.SNS != nil {
			t = cfg.SNS
		}
	case TypeGCPPubSub:
		key = "gcp_pubsub"
		if cfg.GCP != nil {
			t = cfg.GCP
		}
	case TypeHTTP:
		key = "http"
		if cfg.HTTP != nil {
			t = cfg.HTTP
		}
	case TypeNATS:
		key = "nats"
		if cfg.NATS != nil {
			t = cfg.NATS
		}
	default:
		return nil, "", fmt.Errorf("unsupported type %q", cfg.Type)
	}
	return t, key, nil
}

// validatePublisherConfig checks that the block for the entry type is usable.
func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	}
	t, key, err := cfg.targetFor()
	if err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	if t == nil {
		return fmt.Errorf("%s config required for publisher %q", key, cfg.ID)
	}
	if err := t.validate(); err != nil {
		return fmt.Errorf("publisher %q: %s.%w", cfg.ID, key, err)
	}
	return nil
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
	if c.Region == "" {
		c.Region = regionFromQueueURL(c.QueueURL)
	}
}

func (c *SQSPublisherConfig) validate() error {
	if c.QueueURL == "" {
		return errors.New("uri is required")
	}
	if !isHTTPURL(c.QueueURL) {
		return fmt.Errorf("uri %q is not an http(s) url", c.QueueURL)
	}
	if c.Region == "" {
		return errors.New("region is required when it cannot be read from the queue url")
	}
	return nil
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	if c.Region == "" {
		c.Region = regionFromARN(c.TopicARN)
	}
}

func (c *SNSPublisherConfig) validate() error {
	if !strings.HasPrefix(c.TopicARN, "arn:") {
		return fmt.Errorf("topic_arn %q is not an arn", c.TopicARN)
	}
	if c.Region == "" {
		return errors.New("region is required when the arn carries none")
	}
	return nil
}

func (c *GCPQueueConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
}

func (c *GCPQueueConfig) validate() error {
	if c.ProjectID == "" || c.Topic == "" {
		return errors.New("project_id and topic are required")
	}
	return nil
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (c *HTTPPublisherConfig) validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if !isHTTPURL(c.URL) {
		return fmt.Errorf("url %q is not an http(s) url", c.URL)
	}
	return nil
}

func (c *NATSPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	c.Subject = strings.TrimSpace(c.Subject)
}

func (c *NATSPublisherConfig) validate() error {
	if c.Subject == "" {
		return errors.New("subject is required")
	}
	if strings.ContainsAny(c.Subject, " \t*>") {
		return fmt.Errorf("subject %q must be a literal subject", c.Subject)
	}
	return nil
}

// regionFromQueueURL reads the region out of sqs.<region>.amazonaws.com hosts.
func regionFromQueueURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(u.Hostname(), ".")
	if len(parts) >= 4 && parts[0] == "sqs" && parts[2] == "amazonaws" {
		return parts[1]
	}
	return ""
}

// regionFromARN returns the fourth field of arn:partition:service:region:...
func regionFromARN(arn string) string {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) < 6 || parts[0] != "arn" {
		return ""
	}
	return parts[3]
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	return r.index.ByID(id)
}

// All returns every configured publisher in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return r.index.All()
}

// Enabled returns publishers that are not switched off.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	return r.index.Filter(PublisherConfig.EnabledValue)
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
