package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion is the document version written by this build.
const SchemaVersion = 1

// SecretSize is the length in bytes of the process-wide hashing secret.
const SecretSize = 32

var (
	ErrCorruptDocument    = errors.New("persisted state is malformed")
	ErrUnsupportedVersion = errors.New("persisted state has an unsupported schema version")
)

// Document is the single durable record: schema version, secret, all guilds.
type Document struct {
	Version    int                     `json:"version"`
	HashSecret string                  `json:"hash_secret"`
	Guilds     map[string]*GuildConfig `json:"guilds"`
}

func newDocument() *Document {
	return &Document{
		Version: SchemaVersion,
		Guilds:  make(map[string]*GuildConfig),
	}
}

func decodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	switch {
	case doc.Version == 0:
		doc.Version = SchemaVersion
	case doc.Version > SchemaVersion:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	if doc.Guilds == nil {
		doc.Guilds = make(map[string]*GuildConfig)
	}
	for id, cfg := range doc.Guilds {
		if cfg == nil {
			return nil, fmt.Errorf("%w: guild %s is null", ErrCorruptDocument, id)
		}
		if cfg.GuildID == "" {
			cfg.GuildID = id
		}
		if cfg.GuildID != id {
			return nil, fmt.Errorf("%w: guild key %s holds config for %s", ErrCorruptDocument, id, cfg.GuildID)
		}
		cfg.normalize()
	}

	if doc.HashSecret != "" {
		if _, err := hex.DecodeString(doc.HashSecret); err != nil {
			return nil, fmt.Errorf("%w: hash_secret is not hex", ErrCorruptDocument)
		}
	}

	return &doc, nil
}

func (d *Document) encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func generateSecret() (string, error) {
	buf := make([]byte, SecretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
