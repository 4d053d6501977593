package iam

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Bucket roles an access key can hold.
const (
	RoleEditor         = "Editor"
	RoleReadOnly       = "ReadOnly"
	RoleNamespaceAdmin = "NamespaceAdmin"
)

// BucketRoles lists the valid bucket roles in display order.
var BucketRoles = []string{RoleEditor, RoleReadOnly, RoleNamespaceAdmin}

// ValidBucketRole reports whether role is one of BucketRoles.
func ValidBucketRole(role string) bool {
	for _, r := range BucketRoles {
		if r == role {
			return true
		}
	}
	return false
}

// BucketRole grants Role on Bucket. Bucket "*" covers the whole
// organization.
type BucketRole struct {
	Bucket string `xml:"Bucket" json:"bucket"`
	Role   string `xml:"Role" json:"role"`
}

// AccessKey is an access key of the organization. Secret is only set right
// after creation.
type AccessKey struct {
	ID      string    `xml:"AccessKeyId" json:"id"`
	Name    string    `xml:"UserName" json:"name"`
	Status  string    `xml:"Status" json:"status"`
	Created time.Time `xml:"CreateDate" json:"created"`
	Secret  string    `xml:"SecretAccessKey" json:"secret,omitempty"`

	// Organization and Roles are only filled by GetAccessKey.
	Organization string       `xml:"OrganizationId" json:"organization,omitempty"`
	Roles        []BucketRole `xml:"BucketsRoles>member" json:"roles,omitempty"`
}

type listAccessKeysResponse struct {
	Keys []AccessKey `xml:"ListAccessKeysResult>AccessKeyMetadata>member"`
}

type getAccessKeyResponse struct {
	Key AccessKey `xml:"GetAccessKeyResult>AccessKey"`
}

type createAccessKeyResponse struct {
	Key AccessKey `xml:"CreateAccessKeyResult>AccessKey"`
}

func (c *Client) ListAccessKeys(ctx context.Context) ([]AccessKey, error) {
	var resp listAccessKeysResponse
	if err := c.do(ctx, "ListAccessKeys", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// CreateAccessKey creates a key pair named name.
func (c *Client) CreateAccessKey(ctx context.Context, name string) (*AccessKey, error) {
	var resp createAccessKeyResponse
	if err := c.do(ctx, "CreateAccessKey", url.Values{"UserName": {name}}, &resp); err != nil {
		return nil, err
	}
	return &resp.Key, nil
}

func (c *Client) DeleteAccessKey(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteAccessKey", url.Values{"AccessKeyId": {id}}, nil)
}

func (c *Client) GetAccessKey(ctx context.Context, id string) (*AccessKey, error) {
	var resp getAccessKeyResponse
	if err := c.do(ctx, "GetAccessKey", url.Values{"AccessKeyId": {id}}, &resp); err != nil {
		return nil, err
	}
	if resp.Key.ID == "" {
		return nil, fmt.Errorf("Access key '%s' not found", id)
	}
	return &resp.Key, nil
}

// AssignBucketRoles replaces the bucket roles of an access key.
func (c *Client) AssignBucketRoles(ctx context.Context, id string, roles []BucketRole) error {
	params := url.Values{"AccessKeyId": {id}}
	for i, r := range roles {
		n := strconv.Itoa(i + 1)
		params.Set("BucketsRoles.member."+n+".Bucket", r.Bucket)
		params.Set("BucketsRoles.member."+n+".Role", r.Role)
	}
	return c.do(ctx, "AssignBucketRoles", params, nil)
}

// RevokeBucketRoles removes every bucket role from an access key.
func (c *Client) RevokeBucketRoles(ctx context.Context, id string) error {
	return c.do(ctx, "RevokeBucketRoles", url.Values{"AccessKeyId": {id}}, nil)
}

// PairRoles matches roles to buckets. A single role applies to every bucket;
// otherwise the counts must be equal.
func PairRoles(buckets, roles []string) ([]BucketRole, error) {
	if len(roles) != 1 && len(roles) != len(buckets) {
		return nil, fmt.Errorf("Number of roles (%d) must be 1 or match number of buckets (%d)", len(roles), len(buckets))
	}
	for _, r := range roles {
		if !ValidBucketRole(r) {
			return nil, fmt.Errorf("Invalid role %q. Valid roles are: %s", r, strings.Join(BucketRoles, ", "))
		}
	}
	out := make([]BucketRole, len(buckets))
	for i, b := range buckets {
		role := roles[0]
		if len(roles) > 1 {
			role = roles[i]
		}
		out[i] = BucketRole{Bucket: b, Role: role}
	}
	return out, nil
}
