package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Client. Tests use it in place of a live endpoint.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*memBucket
	now     func() time.Time
	seq     int64
}

type memBucket struct {
	created   time.Time
	public    bool
	objects   map[string]memObject
	snapshots []memSnapshot
	settings  BucketSettings

	snapshotsEnabled bool
	source           string
	sourceSnapshot   string
}

type memSnapshot struct {
	Snapshot
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
	public      bool
	modified    time.Time
}

var _ Client = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		buckets: map[string]*memBucket{},
		now:     time.Now,
	}
}

func noSuchBucket(bucket string) error {
	return &Error{Code: "NoSuchBucket", Message: "The specified bucket does not exist: " + bucket, StatusCode: http.StatusNotFound}
}

func noSuchKey(key string) error {
	return &Error{Code: "NoSuchKey", Message: "The specified key does not exist: " + key, StatusCode: http.StatusNotFound}
}

func (m *Memory) bucket(name string) (*memBucket, error) {
	b, ok := m.buckets[name]
	if !ok {
		return nil, noSuchBucket(name)
	}
	return b, nil
}

func (m *Memory) ListBuckets(ctx context.Context) ([]Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Bucket, 0, len(m.buckets))
	for name, b := range m.buckets {
		out = append(out, Bucket{Name: name, Created: b.created})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) BucketExists(ctx context.Context, bucket string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *Memory) MakeBucket(ctx context.Context, bucket string, opts BucketOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; ok {
		return &Error{Code: "BucketAlreadyOwnedByYou", Message: "Your previous request to create the named bucket succeeded and you already own it.", StatusCode: http.StatusConflict}
	}
	m.buckets[bucket] = &memBucket{
		created:          m.now(),
		public:           opts.Public,
		objects:          map[string]memObject{},
		snapshotsEnabled: opts.EnableSnapshots,
	}
	return nil
}

func (m *Memory) RemoveBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return err
	}
	if len(b.objects) > 0 {
		return &Error{Code: "BucketNotEmpty", Message: "The bucket you tried to delete is not empty", StatusCode: http.StatusConflict}
	}
	delete(m.buckets, bucket)
	return nil
}

func (m *Memory) ListObjects(ctx context.Context, bucket, prefix string, recursive bool) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}
	var out []Object
	seen := map[string]bool{}
	for key, o := range b.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !recursive {
			rest := key[len(prefix):]
			if i := strings.Index(rest, "/"); i >= 0 && i < len(rest)-1 {
				p := prefix + rest[:i+1]
				if !seen[p] {
					seen[p] = true
					out = append(out, Object{Key: p, IsPrefix: true})
				}
				continue
			}
		}
		out = append(out, o.info(key))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (o memObject) info(key string) Object {
	return Object{
		Key:          key,
		Size:         int64(len(o.data)),
		LastModified: o.modified,
		ContentType:  o.contentType,
		ETag:         etag(o.data),
	}
}

// etag mirrors S3 single-part ETags, the hex MD5 of the body.
func etag(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func (m *Memory) StatObject(ctx context.Context, bucket, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}
	o, ok := b.objects[key]
	if !ok {
		return nil, noSuchKey(key)
	}
	info := o.info(key)
	return &info, nil
}

func (m *Memory) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) (*Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}
	o := memObject{data: data, contentType: opts.ContentType, public: opts.Public, modified: m.now()}
	b.objects[key] = o
	info := o.info(key)
	return &info, nil
}

func (m *Memory) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}
	o, ok := b.objects[key]
	if !ok {
		return nil, noSuchKey(key)
	}
	return io.NopCloser(bytes.NewReader(o.data)), nil
}

// RemoveObject succeeds for missing keys, like the S3 API.
func (m *Memory) RemoveObject(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return err
	}
	delete(b.objects, key)
	return nil
}

func (m *Memory) CopyObject(ctx context.Context, src, dst Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sb, err := m.bucket(src.Bucket)
	if err != nil {
		return err
	}
	o, ok := sb.objects[src.Key]
	if !ok {
		return noSuchKey(src.Key)
	}
	db, err := m.bucket(dst.Bucket)
	if err != nil {
		return err
	}
	o.modified = m.now()
	db.objects[dst.Key] = o
	return nil
}

// Keys lists every key in bucket. It is meant for assertions.
func (m *Memory) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyObjects(src map[string]memObject) map[string]memObject {
	out := make(map[string]memObject, len(src))
	for k, o := range src {
		out[k] = o
	}
	return out
}

func (m *Memory) TakeSnapshot(ctx context.Context, bucket, name string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}
	if !b.snapshotsEnabled {
		return nil, snapshotsDisabled(bucket)
	}
	m.seq++
	now := m.now()
	s := Snapshot{Name: name, Version: strconv.FormatInt(now.UnixNano()+m.seq, 10), Created: now}
	b.snapshots = append(b.snapshots, memSnapshot{Snapshot: s, objects: copyObjects(b.objects)})
	return &s, nil
}

func (m *Memory) ListSnapshots(ctx context.Context, bucket string) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(b.snapshots))
	for _, s := range b.snapshots {
		out = append(out, s.Snapshot)
	}
	return out, nil
}

func (m *Memory) ForkBucket(ctx context.Context, fork, source, snapshot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, err := m.bucket(source)
	if err != nil {
		return err
	}
	if _, ok := m.buckets[fork]; ok {
		return &Error{Code: "BucketAlreadyExists", Message: "The requested bucket name is not available.", StatusCode: http.StatusConflict}
	}
	if !src.snapshotsEnabled {
		return snapshotsDisabled(source)
	}
	objects := src.objects
	if snapshot != "" {
		objects = nil
		for _, s := range src.snapshots {
			if s.Version == snapshot || (s.Name != "" && s.Name == snapshot) {
				objects = s.objects
			}
		}
		if objects == nil {
			return &Error{Code: "NoSuchSnapshot", Message: "The specified snapshot does not exist: " + snapshot, StatusCode: http.StatusNotFound}
		}
	}
	m.buckets[fork] = &memBucket{
		created:          m.now(),
		objects:          copyObjects(objects),
		snapshotsEnabled: true,
		source:           source,
		sourceSnapshot:   snapshot,
	}
	return nil
}

func (m *Memory) BucketInfo(ctx context.Context, bucket string) (*BucketInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}
	info := &BucketInfo{
		Name:             bucket,
		SnapshotsEnabled: b.snapshotsEnabled,
		SourceBucket:     b.source,
		SourceSnapshot:   b.sourceSnapshot,
	}
	for _, other := range m.buckets {
		if other.source == bucket {
			info.HasForks = true
			break
		}
	}
	return info, nil
}

func (m *Memory) UpdateBucket(ctx context.Context, bucket string, s BucketSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return err
	}
	if s.Public != nil {
		b.public = *s.Public
	}
	cur := &b.settings
	if len(s.Regions) > 0 {
		cur.Regions = append([]string(nil), s.Regions...)
	}
	for _, f := range []struct{ dst, src **bool }{
		{&cur.Public, &s.Public},
		{&cur.AllowObjectACL, &s.AllowObjectACL},
		{&cur.DisableDirectoryListing, &s.DisableDirectoryListing},
		{&cur.DeleteProtection, &s.DeleteProtection},
	} {
		if *f.src != nil {
			*f.dst = *f.src
		}
	}
	if s.CacheControl != nil {
		cur.CacheControl = s.CacheControl
	}
	if s.CustomDomain != nil {
		cur.CustomDomain = s.CustomDomain
	}
	return nil
}

func (m *Memory) UpdateObject(ctx context.Context, bucket, key string, s ObjectSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(bucket)
	if err != nil {
		return err
	}
	o, ok := b.objects[key]
	if !ok {
		return noSuchKey(key)
	}
	o.public = s.Public
	o.modified = m.now()
	if s.NewKey != "" && s.NewKey != key {
		delete(b.objects, key)
		key = s.NewKey
	}
	b.objects[key] = o
	return nil
}

// Settings returns the merged settings applied to bucket. It is meant for
// assertions.
func (m *Memory) Settings(bucket string) BucketSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buckets[bucket]; ok {
		return b.settings
	}
	return BucketSettings{}
}

// IsPublic reports the access of an object, or of the bucket when key is
// empty.
func (m *Memory) IsPublic(bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return false
	}
	if key == "" {
		return b.public
	}
	return b.objects[key].public
}
