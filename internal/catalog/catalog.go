// Package catalog is the static registry of cloud services a generated application can bind.
//
// Overview:
//   - Responsibility: Map a service identifier to its template bundle, npm dependencies and credential lookups
//   - Key Types: Descriptor (one service), Catalog (immutable lookup table)
//   - Concurrency Model: Immutable after construction, safe for concurrent use
//   - Error Semantics: Unknown identifiers fail with a NOT_FOUND error naming the identifier
//   - Performance Notes: Map lookup; the default catalog is built once per process
//
// Usage:
//
//	desc, err := catalog.Default().Lookup("watson conversation")
//	descs, err := catalog.Default().Resolve([]string{"redis", "appid"})
package catalog

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.eggybyte.com/egg/expressgen/core/errors"
)

// Kind classifies what a service provides to the application.
type Kind string

const (
	KindCache          Kind = "cache"
	KindIdentity       Kind = "identity"
	KindDocumentDB     Kind = "document-database"
	KindRelationalDB   Kind = "relational-database"
	KindObjectStorage  Kind = "object-storage"
	KindPush           Kind = "push-notifications"
	KindAlerting       Kind = "alerting"
	KindConversational Kind = "conversational-ai"
)

// Words returns the kind with dashes replaced by spaces, e.g. "document database".
func (k Kind) Words() string {
	return strings.ReplaceAll(string(k), "-", " ")
}

// ServicesDir is the output directory holding one file per selected service.
const ServicesDir = "server/services"

// Credential is one value a generated service file reads at runtime, with the places ibm-cloud-env searches for it.
type Credential struct {
	Key          string // Key in server/config/mappings.json, e.g. "redis_uri"
	CloudFoundry string // JSONPath into VCAP_SERVICES
	Env          string // Environment variable name
}

// Descriptor describes one catalog entry.
//
// Parameters:
//   - ID: Identifier accepted from headless JSON and prompts, e.g. "watson conversation"
//   - Aliases: Extra identifiers resolving to the same entry
//   - Label: Human-readable name
//   - Slug: File stem; the service file is server/services/service-<Slug>.js
//   - Kind: What the service provides
//   - Dependencies: npm package name to semver range
//   - Credentials: Lookups written into mappings.json
//
// Concurrency:
//   - Catalog methods hand out copies, so callers may modify what they receive
type Descriptor struct {
	ID           string
	Aliases      []string
	Label        string
	Slug         string
	Kind         Kind
	Dependencies map[string]string
	Credentials  []Credential
}

// FileName returns the service file name, e.g. service-redis.js.
func (d Descriptor) FileName() string {
	return "service-" + d.Slug + ".js"
}

// Clone returns a copy that shares no slices or maps with d.
func (d Descriptor) Clone() Descriptor {
	d.Aliases = slices.Clone(d.Aliases)
	d.Dependencies = maps.Clone(d.Dependencies)
	d.Credentials = slices.Clone(d.Credentials)
	return d
}

// OutputPath returns the service file path relative to the project root.
func (d Descriptor) OutputPath() string {
	return ServicesDir + "/" + d.FileName()
}

// TemplatePath returns the embedded template rendered into OutputPath.
func (d Descriptor) TemplatePath() string {
	return ServicesDir + "/" + d.FileName() + ".tmpl"
}

// Catalog is an immutable identifier-to-descriptor table.
type Catalog struct {
	byKey map[string]Descriptor
	ids   []string
}

// New builds a catalog, rejecting empty or duplicate identifiers and slugs.
//
// Parameters:
//   - descs: Entries to register
//
// Returns:
//   - *Catalog: Immutable catalog
//   - error: INTERNAL error describing the first conflicting entry
//
// Concurrency:
//   - Safe for concurrent use after return
func New(descs ...Descriptor) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]Descriptor, len(descs))}
	slugs := make(map[string]string, len(descs))

	for _, d := range descs {
		d = d.Clone()
		if d.ID == "" || d.Slug == "" {
			return nil, errors.Newf(errors.CodeInternal, "catalog entry %q has an empty id or slug", d.ID)
		}
		if owner, ok := slugs[d.Slug]; ok {
			return nil, errors.Newf(errors.CodeInternal, "slug %q used by both %q and %q", d.Slug, owner, d.ID)
		}
		slugs[d.Slug] = d.ID

		for _, key := range append([]string{d.ID}, d.Aliases...) {
			norm := Normalize(key)
			if prev, ok := c.byKey[norm]; ok {
				return nil, errors.Newf(errors.CodeInternal, "identifier %q used by both %q and %q", key, prev.ID, d.ID)
			}
			c.byKey[norm] = d
		}
		c.ids = append(c.ids, d.ID)
	}

	sort.Strings(c.ids)
	return c, nil
}

// Normalize folds case, trims, and treats '-' and '_' as spaces so "Watson-Conversation" matches "watson conversation".
func Normalize(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return strings.Join(strings.Fields(id), " ")
}

// Lookup returns the descriptor registered under id or one of its aliases.
//
// Parameters:
//   - id: Service identifier
//
// Returns:
//   - Descriptor: Matching entry
//   - error: NOT_FOUND error listing the known identifiers
//
// Concurrency:
//   - Safe for concurrent use
func (c *Catalog) Lookup(id string) (Descriptor, error) {
	d, ok := c.byKey[Normalize(id)]
	if !ok {
		return Descriptor{}, errors.Build(errors.CodeNotFound).
			WithOp("catalog.Lookup").
			WithMsgf("unknown service %q (known: %s)", id, strings.Join(c.ids, ", ")).
			WithField("services").
			Err()
	}
	return d.Clone(), nil
}

// Resolve looks up every id and returns the distinct descriptors ordered by ID.
// Duplicates, including an alias next to its canonical id, collapse to one entry.
func (c *Catalog) Resolve(ids []string) ([]Descriptor, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]Descriptor, 0, len(ids))

	for _, id := range ids {
		d, err := c.Lookup(id)
		if err != nil {
			return nil, err
		}
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Canonical maps an identifier or alias to its canonical ID.
func (c *Catalog) Canonical(id string) (string, error) {
	d, err := c.Lookup(id)
	if err != nil {
		return "", err
	}
	return d.ID, nil
}

// IDs returns the canonical identifiers in sorted order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// All returns every descriptor ordered by ID.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byKey[Normalize(id)].Clone())
	}
	return out
}

// Default returns the built-in catalog.
var Default = sync.OnceValue(func() *Catalog {
	c, err := New(builtin()...)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid built-in entries: %v", err))
	}
	return c
})

const cloudEnvVersion = "^0.2.6"

func builtin() []Descriptor {
	return []Descriptor{
		{
			ID:    "redis",
			Label: "Compose for Redis",
			Slug:  "redis",
			Kind:  KindCache,
			Dependencies: map[string]string{
				"ibm-cloud-env": cloudEnvVersion,
				"redis":         "^2.8.0",
			},
			Credentials: []Credential{
				{Key: "redis_uri", CloudFoundry: "$['compose-for-redis'][0].credentials.uri", Env: "REDIS_URI"},
			},
		},
		{
			ID:    "appid",
			Label: "App ID",
			Slug:  "appid",
			Kind:  KindIdentity,
			Dependencies: map[string]string{
				"ibm-cloud-env":   cloudEnvVersion,
				"ibmcloud-appid":  "^6.0.0",
				"passport":        "^0.4.0",
				"express-session": "^1.15.6",
			},
			Credentials: []Credential{
				{Key: "appid_tenant_id", CloudFoundry: "$.AppID[0].credentials.tenantId", Env: "APPID_TENANT_ID"},
				{Key: "appid_client_id", CloudFoundry: "$.AppID[0].credentials.clientId", Env: "APPID_CLIENT_ID"},
				{Key: "appid_secret", CloudFoundry: "$.AppID[0].credentials.secret", Env: "APPID_SECRET"},
				{Key: "appid_oauth_server_url", CloudFoundry: "$.AppID[0].credentials.oauthServerUrl", Env: "APPID_OAUTH_SERVER_URL"},
			},
		},
		{
			ID:    "cloudant",
			Label: "Cloudant NoSQL DB",
			Slug:  "cloudant",
			Kind:  KindDocumentDB,
			Dependencies: map[string]string{
				"ibm-cloud-env":      cloudEnvVersion,
				"@cloudant/cloudant": "^3.0.2",
			},
			Credentials: []Credential{
				{Key: "cloudant_url", CloudFoundry: "$.cloudantNoSQLDB[0].credentials.url", Env: "CLOUDANT_URL"},
			},
		},
		{
			ID:      "mongo",
			Aliases: []string{"mongodb"},
			Label:   "Compose for MongoDB",
			Slug:    "mongodb",
			Kind:    KindDocumentDB,
			Dependencies: map[string]string{
				"ibm-cloud-env": cloudEnvVersion,
				"mongodb":       "^3.1.13",
			},
			Credentials: []Credential{
				{Key: "mongodb_uri", CloudFoundry: "$['compose-for-mongodb'][0].credentials.uri", Env: "MONGODB_URI"},
				{Key: "mongodb_ca", CloudFoundry: "$['compose-for-mongodb'][0].credentials.ca_certificate_base64", Env: "MONGODB_CA"},
			},
		},
		{
			ID:      "postgre",
			Aliases: []string{"postgres", "postgresql"},
			Label:   "Compose for PostgreSQL",
			Slug:    "postgre",
			Kind:    KindRelationalDB,
			Dependencies: map[string]string{
				"ibm-cloud-env": cloudEnvVersion,
				"pg":            "^7.8.1",
			},
			Credentials: []Credential{
				{Key: "postgre_uri", CloudFoundry: "$['compose-for-postgresql'][0].credentials.uri", Env: "POSTGRE_URI"},
			},
		},
		{
			ID:    "object storage",
			Label: "Cloud Object Storage",
			Slug:  "object-storage",
			Kind:  KindObjectStorage,
			Dependencies: map[string]string{
				"ibm-cloud-env": cloudEnvVersion,
				"ibm-cos-sdk":   "^1.4.1",
			},
			Credentials: []Credential{
				{Key: "cloud_object_storage_apikey", CloudFoundry: "$['cloud-object-storage'][0].credentials.apikey", Env: "COS_APIKEY"},
				{Key: "cloud_object_storage_resource_instance_id", CloudFoundry: "$['cloud-object-storage'][0].credentials.resource_instance_id", Env: "COS_RESOURCE_INSTANCE_ID"},
			},
		},
		{
			ID:    "push",
			Label: "Push Notifications",
			Slug:  "push",
			Kind:  KindPush,
			Dependencies: map[string]string{
				"ibm-cloud-env":          cloudEnvVersion,
				"ibm-push-notifications": "^1.0.0",
				"request":                "^2.81.0",
			},
			Credentials: []Credential{
				{Key: "push_app_guid", CloudFoundry: "$.imfpush[0].credentials.appGuid", Env: "PUSH_APP_GUID"},
				{Key: "push_apikey", CloudFoundry: "$.imfpush[0].credentials.apikey", Env: "PUSH_APIKEY"},
			},
		},
		{
			ID:    "alert notification",
			Label: "Alert Notification",
			Slug:  "alert-notification",
			Kind:  KindAlerting,
			Dependencies: map[string]string{
				"ibm-cloud-env": cloudEnvVersion,
				"request":       "^2.88.0",
			},
			Credentials: []Credential{
				{Key: "alert_notification_url", CloudFoundry: "$.alertnotification[0].credentials.url", Env: "ALERT_NOTIFICATION_URL"},
				{Key: "alert_notification_name", CloudFoundry: "$.alertnotification[0].credentials.name", Env: "ALERT_NOTIFICATION_NAME"},
				{Key: "alert_notification_password", CloudFoundry: "$.alertnotification[0].credentials.password", Env: "ALERT_NOTIFICATION_PASSWORD"},
			},
		},
		{
			ID:      "watson conversation",
			Aliases: []string{"watson assistant", "conversation"},
			Label:   "Watson Assistant (Conversation)",
			Slug:    "watson-conversation",
			Kind:    KindConversational,
			Dependencies: map[string]string{
				"ibm-cloud-env":          cloudEnvVersion,
				"watson-developer-cloud": "^3.18.2",
			},
			Credentials: []Credential{
				{Key: "watson_conversation_url", CloudFoundry: "$.conversation[0].credentials.url", Env: "WATSON_CONVERSATION_URL"},
				{Key: "watson_conversation_apikey", CloudFoundry: "$.conversation[0].credentials.apikey", Env: "WATSON_CONVERSATION_APIKEY"},
			},
		},
	}
}
