// Package storage is the object store client used by the command handlers.
// It wraps minio-go and authenticates either with an access key pair or with
// an OAuth bearer token scoped to an organization.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tigrisdata/cli/internal/auth"
	"github.com/tigrisdata/cli/internal/logging"
)

// NamespaceHeader selects the organization for bearer-token requests.
const NamespaceHeader = "X-Tigris-Namespace"

const region = "auto"

// Bucket is one entry of a bucket listing.
type Bucket struct {
	Name    string    `json:"name" xml:"name"`
	Created time.Time `json:"created" xml:"created"`
}

// Object describes an object, or a common prefix when IsPrefix is set.
type Object struct {
	Key          string    `json:"key" xml:"key"`
	Size         int64     `json:"size" xml:"size"`
	LastModified time.Time `json:"lastModified,omitempty" xml:"lastModified,omitempty"`
	ContentType  string    `json:"contentType,omitempty" xml:"contentType,omitempty"`
	ETag         string    `json:"etag,omitempty" xml:"etag,omitempty"`
	IsPrefix     bool      `json:"isPrefix,omitempty" xml:"isPrefix,omitempty"`
}

// BucketOptions are applied when a bucket is created.
type BucketOptions struct {
	Region          string
	Public          bool
	EnableSnapshots bool
}

// PutOptions are applied to uploaded objects.
type PutOptions struct {
	ContentType string
	Public      bool
}

// Client is the subset of object store operations the CLI uses.
type Client interface {
	ListBuckets(ctx context.Context) ([]Bucket, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts BucketOptions) error
	RemoveBucket(ctx context.Context, bucket string) error

	// ListObjects lists keys under prefix. Without recursive, keys below the
	// next slash are folded into prefix entries.
	ListObjects(ctx context.Context, bucket, prefix string, recursive bool) ([]Object, error)
	StatObject(ctx context.Context, bucket, key string) (*Object, error)
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) (*Object, error)
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucket, key string) error
	CopyObject(ctx context.Context, src, dst Path) error

	// TakeSnapshot records the current state of a snapshot-enabled bucket.
	// name is an optional label.
	TakeSnapshot(ctx context.Context, bucket, name string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, bucket string) ([]Snapshot, error)
	// ForkBucket creates fork as a copy-on-write child of source, at the
	// given snapshot version or at the current state when it is empty.
	ForkBucket(ctx context.Context, fork, source, snapshot string) error
	BucketInfo(ctx context.Context, bucket string) (*BucketInfo, error)
	UpdateBucket(ctx context.Context, bucket string, s BucketSettings) error
	UpdateObject(ctx context.Context, bucket, key string, s ObjectSettings) error
}

// MinioClient implements Client on minio-go.
type MinioClient struct {
	mc *minio.Client

	// endpoint, httpClient and keys serve the calls minio-go has no API for.
	endpoint   string
	httpClient *http.Client
	keys       *auth.StorageConfig
}

var _ Client = (*MinioClient)(nil)

// New builds a client for the resolved credentials.
func New(sc *auth.StorageConfig, logger *logging.Logger) (*MinioClient, error) {
	u, err := url.Parse(sc.Endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid storage endpoint %q", sc.Endpoint)
	}

	var base http.RoundTripper = http.DefaultTransport
	if logger != nil {
		base = logging.NewTransport(base, logger)
	}
	base = &tigrisTransport{base: base}

	opts := &minio.Options{
		Secure:       u.Scheme == "https",
		Region:       region,
		BucketLookup: minio.BucketLookupAuto,
		Transport:    base,
	}
	if sc.IsOAuth() {
		opts.Creds = credentials.NewStatic("", "", "", credentials.SignatureAnonymous)
		opts.Transport = &bearerTransport{
			base:      base,
			token:     sc.SessionToken,
			namespace: sc.OrganizationID,
		}
	} else {
		opts.Creds = credentials.NewStaticV4(sc.AccessKeyID, sc.SecretAccessKey, sc.SessionToken)
	}

	mc, err := minio.New(u.Host, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	c := &MinioClient{
		mc:         mc,
		endpoint:   u.Scheme + "://" + u.Host,
		httpClient: &http.Client{Transport: opts.Transport},
	}
	if !sc.IsOAuth() {
		c.keys = sc
	}
	return c, nil
}

// bearerTransport authenticates requests with an OAuth access token.
type bearerTransport struct {
	base      http.RoundTripper
	token     string
	namespace string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	if t.namespace != "" {
		r.Header.Set(NamespaceHeader, t.namespace)
	}
	return t.base.RoundTrip(r)
}

func (c *MinioClient) ListBuckets(ctx context.Context) ([]Bucket, error) {
	infos, err := c.mc.ListBuckets(ctx)
	if err != nil {
		return nil, wrap(err)
	}
	buckets := make([]Bucket, 0, len(infos))
	for _, b := range infos {
		buckets = append(buckets, Bucket{Name: b.Name, Created: b.CreationDate})
	}
	return buckets, nil
}

func (c *MinioClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	ok, err := c.mc.BucketExists(ctx, bucket)
	return ok, wrap(err)
}

func (c *MinioClient) MakeBucket(ctx context.Context, bucket string, opts BucketOptions) error {
	mctx := ctx
	if opts.EnableSnapshots {
		mctx, _ = withExchange(ctx, headers(HeaderEnableSnapshot, "true"))
	}
	if err := c.mc.MakeBucket(mctx, bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
		return wrap(err)
	}
	if opts.Public {
		return wrap(c.mc.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)))
	}
	return nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

func (c *MinioClient) RemoveBucket(ctx context.Context, bucket string) error {
	return wrap(c.mc.RemoveBucket(ctx, bucket))
}

func (c *MinioClient) ListObjects(ctx context.Context, bucket, prefix string, recursive bool) ([]Object, error) {
	var objects []Object
	for info := range c.mc.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: recursive}) {
		if info.Err != nil {
			return nil, wrap(info.Err)
		}
		objects = append(objects, objectFrom(info))
	}
	sort.SliceStable(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (c *MinioClient) StatObject(ctx context.Context, bucket, key string) (*Object, error) {
	info, err := c.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, wrap(err)
	}
	o := objectFrom(info)
	return &o, nil
}

func (c *MinioClient) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) (*Object, error) {
	po := minio.PutObjectOptions{ContentType: opts.ContentType}
	if opts.Public {
		po.UserMetadata = map[string]string{"x-amz-acl": "public-read"}
	}
	info, err := c.mc.PutObject(ctx, bucket, key, r, size, po)
	if err != nil {
		return nil, wrap(err)
	}
	return &Object{Key: info.Key, Size: info.Size, ETag: info.ETag, LastModified: info.LastModified, ContentType: opts.ContentType}, nil
}

func (c *MinioClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrap(err)
	}
	// GetObject is lazy; Stat surfaces a missing key before any bytes are read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, wrap(err)
	}
	return obj, nil
}

func (c *MinioClient) RemoveObject(ctx context.Context, bucket, key string) error {
	return wrap(c.mc.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}))
}

func (c *MinioClient) CopyObject(ctx context.Context, src, dst Path) error {
	_, err := c.mc.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: dst.Bucket, Object: dst.Key},
		minio.CopySrcOptions{Bucket: src.Bucket, Object: src.Key},
	)
	return wrap(err)
}

func objectFrom(info minio.ObjectInfo) Object {
	return Object{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		IsPrefix:     info.Key != "" && info.Size == 0 && info.ETag == "" && info.Key[len(info.Key)-1] == '/',
	}
}

// Error is a failed storage request. Message is the server's text.
type Error struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		return err
	}
	return &Error{Code: resp.Code, Message: resp.Message, StatusCode: resp.StatusCode}
}

// IsNotFound reports whether err means the bucket or key does not exist.
func IsNotFound(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return e.StatusCode == http.StatusNotFound
}

// IsAlreadyExists reports whether a bucket create hit an existing bucket.
func IsAlreadyExists(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == "BucketAlreadyOwnedByYou" || e.Code == "BucketAlreadyExists"
}
