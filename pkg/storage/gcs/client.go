package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/onetwoclick/rinkshots-backend/pkg/config"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

const (
	AccessModePublic = "public"
	AccessModeSigned = "signed"

	defaultPublicBase = "https://storage.googleapis.com"
	maxDownloadBytes  = 25 << 20
)

var (
	errBucketRequired  = errors.New("gcs bucket name is required")
	errObjectRequired  = errors.New("gcs object name is required")
	errNoSigner        = errors.New("gcs service account credentials required for signed urls")
	errInvalidExpiry   = errors.New("signed url expiry must be positive")
	errContentType     = errors.New("content type is required for signed uploads")
	errDownloadTooBig  = errors.New("gcs object exceeds download limit")
	errUnsupportedMode = errors.New("gcs access mode must be public or signed")
)

// Client resolves photo object paths to download URLs and fetches object
// bytes for email attachments.
type Client struct {
	httpClient     *http.Client
	defaultBucket  string
	publicBase     string
	accessMode     string
	expiry         time.Duration
	serviceAccount *serviceAccountInfo
	now            func() time.Time
}

type serviceAccountInfo struct {
	clientEmail string
	privateKey  *rsa.PrivateKey
}

// Object is a downloaded blob.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errBucketRequired
	}
	mode := strings.ToLower(strings.TrimSpace(cfg.AccessMode))
	if mode == "" {
		mode = AccessModePublic
	}
	if mode != AccessModePublic && mode != AccessModeSigned {
		return nil, errUnsupportedMode
	}

	var (
		sa  *serviceAccountInfo
		err error
	)
	switch {
	case gcp.CredentialsJSON != "":
		sa, err = parseServiceAccount(gcp.CredentialsJSON)
	case gcp.ApplicationCredentials != "":
		raw, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		sa, err = parseServiceAccount(string(raw))
	}
	if err != nil {
		return nil, err
	}
	if mode == AccessModeSigned && sa == nil {
		return nil, errNoSigner
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = defaultPublicBase
	}

	client := &Client{
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		defaultBucket:  cfg.BucketName,
		publicBase:     base,
		accessMode:     mode,
		expiry:         cfg.DownloadURLExpiry,
		serviceAccount: sa,
		now:            time.Now,
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"bucket": cfg.BucketName, "access_mode": mode})
		logg.Info(ctx, "gcs client initialized")
	}
	return client, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// ObjectURL returns the download URL for an object in the default bucket,
// public or signed depending on the configured access mode.
func (c *Client) ObjectURL(object string) (string, error) {
	if c == nil {
		return "", errors.New("gcs client not initialized")
	}
	if c.accessMode == AccessModeSigned {
		return c.SignedReadURL("", object, c.expiry)
	}
	return c.PublicURL("", object)
}

// PublicURL composes the unauthenticated URL for a publicly readable object.
func (c *Client) PublicURL(bucket, object string) (string, error) {
	bucket = c.bucketOrDefault(bucket)
	if bucket == "" {
		return "", errBucketRequired
	}
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errObjectRequired
	}
	base := c.publicBase
	if base == "" {
		base = defaultPublicBase
	}
	return fmt.Sprintf("%s/%s/%s", base, url.PathEscape(bucket), escapeObject(object)), nil
}

// SignedReadURL returns a V2 signed GET URL valid for expires.
func (c *Client) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	return c.signV2(http.MethodGet, bucket, object, "", expires)
}

// SignedUploadURL returns a V2 signed PUT URL. The uploader must send the
// same Content-Type that was signed.
func (c *Client) SignedUploadURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		return "", errContentType
	}
	return c.signV2(http.MethodPut, bucket, object, strings.TrimSpace(contentType), expires)
}

func (c *Client) signV2(method, bucket, object, contentType string, expires time.Duration) (string, error) {
	if c == nil || c.serviceAccount == nil || c.serviceAccount.privateKey == nil {
		return "", errNoSigner
	}
	bucket = c.bucketOrDefault(bucket)
	if bucket == "" {
		return "", errBucketRequired
	}
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errObjectRequired
	}
	if expires <= 0 {
		return "", errInvalidExpiry
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	expiration := strconv.FormatInt(now().Add(expires).Unix(), 10)
	resource := "/" + bucket + "/" + object
	payload := strings.Join([]string{method, "", contentType, expiration, resource}, "\n")

	hash := sha256.Sum256([]byte(payload))
	sig, err := rsa.SignPKCS1v15(rand.Reader, c.serviceAccount.privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("signing url: %w", err)
	}

	q := url.Values{}
	q.Set("GoogleAccessId", c.serviceAccount.clientEmail)
	q.Set("Expires", expiration)
	q.Set("Signature", base64.StdEncoding.EncodeToString(sig))

	return fmt.Sprintf("%s/%s/%s?%s", defaultPublicBase, url.PathEscape(bucket), escapeObject(object), q.Encode()), nil
}

// Fetch downloads the object behind rawURL. Responses larger than the
// download limit are rejected.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Object, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("gcs client not initialized")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gcs fetch failed: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownloadBytes {
		return nil, errDownloadTooBig
	}

	name := req.URL.Path
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &Object{Name: name, ContentType: contentType, Data: data}, nil
}

func (c *Client) bucketOrDefault(bucket string) string {
	if b := strings.TrimSpace(bucket); b != "" {
		return b
	}
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

func escapeObject(object string) string {
	parts := strings.Split(object, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func parseServiceAccount(jsonCreds string) (*serviceAccountInfo, error) {
	var creds struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal([]byte(jsonCreds), &creds); err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, errors.New("invalid service account credentials")
	}
	key, err := parsePrivateKey(creds.PrivateKey)
	if err != nil {
		return nil, err
	}
	return &serviceAccountInfo{clientEmail: creds.ClientEmail, privateKey: key}, nil
}

func parsePrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("invalid private key")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		if priv, ok := key.(*rsa.PrivateKey); ok {
			return priv, nil
		}
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.New("unsupported private key format")
	}
	return priv, nil
}
