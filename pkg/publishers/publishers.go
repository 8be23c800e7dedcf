package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Publisher types.
	TypeQueue   = "queue"
	TypeWebhook = "webhook"

	// Queue providers.
	ProviderSQS    = "aws-sqs"
	ProviderSNS    = "aws-sns"
	ProviderPubSub = "gcp-pubsub"

	webhookDefaultMethod  = "POST"
	webhookDefaultTimeout = 10 * time.Second
)

type registryFile struct {
	Publishers []Config `json:"publishers" yaml:"publishers"`
}

// Config is one publisher entry of the registry file.
type Config struct {
	ID      string         `json:"id" yaml:"id"`
	Type    string         `json:"type" yaml:"type"`
	Enabled *bool          `json:"enabled" yaml:"enabled"`
	Queue   *QueueConfig   `json:"queue" yaml:"queue"`
	Webhook *WebhookConfig `json:"webhook" yaml:"webhook"`
}

// QueueConfig selects a cloud queue provider.
type QueueConfig struct {
	Provider string        `json:"provider" yaml:"provider"`
	SQS      *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS      *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub   *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// AWSCredentials are optional static credentials; empty means the default AWS chain.
type AWSCredentials struct {
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SQSConfig targets an SQS queue.
type SQSConfig struct {
	QueueURL       string `json:"queue_url" yaml:"queue_url"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// SNSConfig targets an SNS topic.
type SNSConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// PubSubConfig targets a Pub/Sub topic.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// WebhookConfig posts events as JSON to an HTTP endpoint.
type WebhookConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout or the default.
func (c WebhookConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return webhookDefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IsEnabled defaults to true when the flag is absent.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ConfigSet is the validated content of a registry file.
type ConfigSet struct {
	mu      sync.RWMutex
	entries []Config
	byID    map[string]Config
}

// LoadConfigs reads a YAML or JSON registry file. ${VAR} references are expanded from the environment.
func LoadConfigs(path string) (*ConfigSet, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}
	return ParseConfigs([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
}

// ParseConfigs decodes and validates registry content. ext selects the decoder; empty tries both.
func ParseConfigs(data []byte, ext string) (*ConfigSet, error) {
	file, err := decodeRegistry(data, ext)
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	set := &ConfigSet{
		entries: make([]Config, 0, len(file.Publishers)),
		byID:    make(map[string]Config, len(file.Publishers)),
	}
	for i, entry := range file.Publishers {
		cfg := normalizeConfig(entry)
		if err := validateConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := set.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		set.entries = append(set.entries, cfg)
		set.byID[cfg.ID] = cfg
	}
	return set, nil
}

func decodeRegistry(data []byte, ext string) (registryFile, error) {
	decoders := map[string]func([]byte, any) error{
		".yaml": yaml.Unmarshal,
		".yml":  yaml.Unmarshal,
		".json": json.Unmarshal,
	}
	order := []string{".yaml", ".json"}
	if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
		if _, ok := decoders[ext]; !ok {
			return registryFile{}, fmt.Errorf("unsupported publishers file extension %q", ext)
		}
		order = []string{ext}
	}

	var lastErr error
	for _, e := range order {
		var file registryFile
		if err := decoders[e](data, &file); err != nil {
			lastErr = err
			continue
		}
		return file, nil
	}
	return registryFile{}, fmt.Errorf("decode publishers file: %w", lastErr)
}

func normalizeConfig(cfg Config) Config {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if q := cfg.Queue; q != nil {
		qc := *q
		qc.Provider = strings.ToLower(strings.TrimSpace(qc.Provider))
		if qc.SQS != nil {
			s := *qc.SQS
			s.QueueURL = strings.TrimSpace(s.QueueURL)
			s.AWSCredentials = trimCredentials(s.AWSCredentials)
			qc.SQS = &s
		}
		if qc.SNS != nil {
			s := *qc.SNS
			s.TopicARN = strings.TrimSpace(s.TopicARN)
			s.AWSCredentials = trimCredentials(s.AWSCredentials)
			qc.SNS = &s
		}
		if qc.PubSub != nil {
			p := *qc.PubSub
			p.ProjectID = strings.TrimSpace(p.ProjectID)
			p.Topic = strings.TrimSpace(p.Topic)
			p.CredentialsFile = strings.TrimSpace(p.CredentialsFile)
			qc.PubSub = &p
		}
		cfg.Queue = &qc
	}
	if w := cfg.Webhook; w != nil {
		wc := *w
		wc.URL = strings.TrimSpace(wc.URL)
		wc.Method = strings.ToUpper(strings.TrimSpace(wc.Method))
		if wc.Method == "" {
			wc.Method = webhookDefaultMethod
		}
		wc.Headers = trimHeaders(wc.Headers)
		cfg.Webhook = &wc
	}
	return cfg
}

func trimCredentials(c AWSCredentials) AWSCredentials {
	return AWSCredentials{
		Region:          strings.TrimSpace(c.Region),
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
	}
}

func trimHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateConfig(cfg Config) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	switch cfg.Type {
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("queue config required for publisher %q", cfg.ID)
		}
		return validateQueue(cfg.ID, cfg.Queue)
	case TypeWebhook:
		if cfg.Webhook == nil || cfg.Webhook.URL == "" {
			return fmt.Errorf("webhook.url is required for publisher %q", cfg.ID)
		}
		if !strings.HasPrefix(cfg.Webhook.URL, "http://") && !strings.HasPrefix(cfg.Webhook.URL, "https://") {
			return fmt.Errorf("webhook.url must be http(s) for publisher %q", cfg.ID)
		}
		return nil
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	default:
		return fmt.Errorf("type %q not supported for publisher %q", cfg.Type, cfg.ID)
	}
}

func validateQueue(id string, q *QueueConfig) error {
	switch q.Provider {
	case ProviderSQS:
		if q.SQS == nil || q.SQS.QueueURL == "" {
			return fmt.Errorf("sqs.queue_url is required for publisher %q", id)
		}
		return validateCredentials(id, "sqs", q.SQS.AWSCredentials)
	case ProviderSNS:
		if q.SNS == nil || q.SNS.TopicARN == "" {
			return fmt.Errorf("sns.topic_arn is required for publisher %q", id)
		}
		return validateCredentials(id, "sns", q.SNS.AWSCredentials)
	case ProviderPubSub:
		if q.PubSub == nil || q.PubSub.ProjectID == "" {
			return fmt.Errorf("pubsub.project_id is required for publisher %q", id)
		}
		if q.PubSub.Topic == "" {
			return fmt.Errorf("pubsub.topic is required for publisher %q", id)
		}
		return nil
	default:
		return fmt.Errorf("queue provider %q not supported for publisher %q", q.Provider, id)
	}
}

// Static keys come as a pair; either both or neither.
func validateCredentials(id, section string, c AWSCredentials) error {
	if c.Region == "" {
		return fmt.Errorf("%s.region is required for publisher %q", section, id)
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("%s.access_key_id and %s.secret_access_key must be set together for publisher %q", section, section, id)
	}
	return nil
}

// ByID returns the entry with id.
func (s *ConfigSet) ByID(id string) (Config, bool) {
	if s == nil {
		return Config{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.byID[strings.TrimSpace(id)]
	return cfg, ok
}

// All returns every entry in file order.
func (s *ConfigSet) All() []Config {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Config, len(s.entries))
	copy(out, s.entries)
	return out
}

// Enabled returns the entries whose enabled flag is unset or true.
func (s *ConfigSet) Enabled() []Config {
	var out []Config
	for _, cfg := range s.All() {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}
