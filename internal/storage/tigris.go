package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/signer"
)

// Tigris extensions to the S3 bucket calls.
const (
	HeaderEnableSnapshot     = "X-Tigris-Enable-Snapshot"
	HeaderSnapshot           = "X-Tigris-Snapshot"
	HeaderSnapshotVersion    = "X-Tigris-Snapshot-Version"
	HeaderForkSource         = "X-Tigris-Fork-Source-Bucket"
	HeaderForkSourceSnapshot = "X-Tigris-Fork-Source-Bucket-Snapshot"
	HeaderHasForks           = "X-Tigris-Has-Forks"
)

// Snapshot is a point-in-time version of a bucket.
type Snapshot struct {
	Name    string    `json:"name,omitempty" xml:"name,omitempty"`
	Version string    `json:"version" xml:"version"`
	Created time.Time `json:"created" xml:"created"`
}

// BucketInfo holds the Tigris attributes reported for a bucket.
type BucketInfo struct {
	Name             string `json:"name" xml:"name"`
	SnapshotsEnabled bool   `json:"snapshotsEnabled" xml:"snapshotsEnabled"`
	SourceBucket     string `json:"sourceBucket,omitempty" xml:"sourceBucket,omitempty"`
	SourceSnapshot   string `json:"sourceSnapshot,omitempty" xml:"sourceSnapshot,omitempty"`
	HasForks         bool   `json:"hasForks" xml:"hasForks"`
}

// BucketSettings is a partial update of a bucket. Nil fields are left as
// they are.
type BucketSettings struct {
	Public                  *bool
	Regions                 []string
	AllowObjectACL          *bool
	DisableDirectoryListing *bool
	CacheControl            *string
	CustomDomain            *string
	DeleteProtection        *bool
}

// Empty reports whether no setting is changed.
func (s BucketSettings) Empty() bool {
	return s.Public == nil && len(s.Regions) == 0 && s.AllowObjectACL == nil &&
		s.DisableDirectoryListing == nil && s.CacheControl == nil &&
		s.CustomDomain == nil && s.DeleteProtection == nil
}

// patch is the JSON body of the bucket update call. Access goes through the
// bucket policy instead.
func (s BucketSettings) patch() map[string]any {
	body := map[string]any{}
	if len(s.Regions) > 0 {
		body["regions"] = strings.Join(s.Regions, ",")
	}
	if s.AllowObjectACL != nil {
		body["allow_object_acl"] = *s.AllowObjectACL
	}
	if s.DisableDirectoryListing != nil {
		body["disable_directory_listing"] = *s.DisableDirectoryListing
	}
	if s.CacheControl != nil {
		body["cache_control"] = *s.CacheControl
	}
	if s.CustomDomain != nil {
		body["website"] = map[string]string{"domain_name": *s.CustomDomain}
	}
	if s.DeleteProtection != nil {
		body["protection"] = map[string]bool{"protected": *s.DeleteProtection}
	}
	return body
}

// ObjectSettings changes the access of an object and optionally renames it.
type ObjectSettings struct {
	Public bool
	NewKey string
}

// exchange carries extension headers into the requests minio-go sends for
// one call and brings the response headers back.
type exchange struct {
	request http.Header

	mu       sync.Mutex
	response http.Header
}

type exchangeKey struct{}

func withExchange(ctx context.Context, h http.Header) (context.Context, *exchange) {
	ex := &exchange{request: h}
	return context.WithValue(ctx, exchangeKey{}, ex), ex
}

func (ex *exchange) header(name string) string {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.response.Get(name)
}

// tigrisTransport applies the exchange bound to the request context.
type tigrisTransport struct {
	base http.RoundTripper
}

func (t *tigrisTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ex, ok := req.Context().Value(exchangeKey{}).(*exchange)
	if !ok {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	for k, v := range ex.request {
		r.Header[k] = append([]string(nil), v...)
	}
	resp, err := t.base.RoundTrip(r)
	if resp != nil {
		ex.mu.Lock()
		ex.response = resp.Header.Clone()
		ex.mu.Unlock()
	}
	return resp, err
}

func headers(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			h.Set(kv[i], kv[i+1])
		}
	}
	return h
}

func (c *MinioClient) TakeSnapshot(ctx context.Context, bucket, name string) (*Snapshot, error) {
	value := "true"
	if name != "" {
		value += "; name=" + name
	}
	ctx, ex := withExchange(ctx, headers(HeaderSnapshot, value))
	if err := c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return nil, wrap(err)
	}
	return &Snapshot{Name: name, Version: ex.header(HeaderSnapshotVersion), Created: time.Now()}, nil
}

func (c *MinioClient) ListSnapshots(ctx context.Context, bucket string) ([]Snapshot, error) {
	ctx, _ = withExchange(ctx, headers(HeaderSnapshot, bucket))
	infos, err := c.mc.ListBuckets(ctx)
	if err != nil {
		return nil, wrap(err)
	}
	snapshots := make([]Snapshot, 0, len(infos))
	for _, b := range infos {
		s := ParseSnapshot(b.Name)
		s.Created = b.CreationDate
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

// ParseSnapshot splits a snapshot listing entry, "<version>" or
// "<version>; name=<name>".
func ParseSnapshot(entry string) Snapshot {
	version, rest, _ := strings.Cut(entry, ";")
	s := Snapshot{Version: strings.TrimSpace(version)}
	if name, ok := strings.CutPrefix(strings.TrimSpace(rest), "name="); ok {
		s.Name = name
	}
	return s
}

func (c *MinioClient) ForkBucket(ctx context.Context, fork, source, snapshot string) error {
	ctx, _ = withExchange(ctx, headers(HeaderForkSource, source, HeaderForkSourceSnapshot, snapshot))
	return wrap(c.mc.MakeBucket(ctx, fork, minio.MakeBucketOptions{}))
}

func (c *MinioClient) BucketInfo(ctx context.Context, bucket string) (*BucketInfo, error) {
	ctx, ex := withExchange(ctx, http.Header{})
	ok, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		return nil, wrap(err)
	}
	if !ok {
		return nil, noSuchBucket(bucket)
	}
	return &BucketInfo{
		Name:             bucket,
		SnapshotsEnabled: ex.header(HeaderEnableSnapshot) == "true",
		SourceBucket:     ex.header(HeaderForkSource),
		SourceSnapshot:   ex.header(HeaderForkSourceSnapshot),
		HasForks:         ex.header(HeaderHasForks) == "true",
	}, nil
}

func (c *MinioClient) UpdateBucket(ctx context.Context, bucket string, s BucketSettings) error {
	if s.Public != nil {
		policy := ""
		if *s.Public {
			policy = publicReadPolicy(bucket)
		}
		if err := c.mc.SetBucketPolicy(ctx, bucket, policy); err != nil {
			return wrap(err)
		}
	}
	body := s.patch()
	if len(body) == 0 {
		return nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.endpoint+"/"+url.PathEscape(bucket), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.keys != nil {
		sum := sha256.Sum256(data)
		req.Header.Set("X-Amz-Content-Sha256", hex.EncodeToString(sum[:]))
		req = signer.SignV4(*req, c.keys.AccessKeyID, c.keys.SecretAccessKey, c.keys.SessionToken, region)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	var er minio.ErrorResponse
	if xml.Unmarshal(raw, &er) != nil || er.Code == "" {
		return &Error{Code: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(raw)), StatusCode: resp.StatusCode}
	}
	return &Error{Code: er.Code, Message: er.Message, StatusCode: resp.StatusCode}
}

// UpdateObject rewrites the object's access in place, or under NewKey and
// then removes the old key.
func (c *MinioClient) UpdateObject(ctx context.Context, bucket, key string, s ObjectSettings) error {
	info, err := c.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return wrap(err)
	}
	dst := key
	if s.NewKey != "" {
		dst = s.NewKey
	}
	acl := "private"
	if s.Public {
		acl = "public-read"
	}
	_, err = c.mc.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          bucket,
			Object:          dst,
			ContentType:     info.ContentType,
			UserMetadata:    map[string]string{"x-amz-acl": acl},
			ReplaceMetadata: true,
		},
		minio.CopySrcOptions{Bucket: bucket, Object: key},
	)
	if err != nil {
		return wrap(err)
	}
	if dst == key {
		return nil
	}
	return c.RemoveObject(ctx, bucket, key)
}

func snapshotsDisabled(bucket string) error {
	return &Error{
		Code:       "InvalidRequest",
		Message:    fmt.Sprintf("Snapshots are not enabled for bucket '%s'", bucket),
		StatusCode: http.StatusBadRequest,
	}
}
