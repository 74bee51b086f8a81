package core

import (
	"context"
)

// Classifier defines the interface for obtaining a verdict for a message
type Classifier interface {
	// Classify sends the message attributes to the classifier and returns its verdict
	Classify(ctx context.Context, attrs MessageAttributes) (*Verdict, error)
}

// VerdictCache defines the interface for remembering verdicts per message
type VerdictCache interface {
	// Get retrieves a cached verdict for a message fingerprint
	Get(ctx context.Context, fingerprint string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, fingerprint string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// Notifier defines the interface for the collaborator behind verify and report
type Notifier interface {
	Notify(ctx context.Context, r Remediation) error
}

// DomainTrust reports whether a sender belongs to a trusted domain
type DomainTrust interface {
	IsWhitelisted(from string) bool
}
