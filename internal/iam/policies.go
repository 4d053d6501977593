package iam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var policyName = regexp.MustCompile(`^[a-zA-Z0-9=,.@_-]+$`)

// ErrInvalidPolicyName rejects names the API would refuse.
var ErrInvalidPolicyName = errors.New("Invalid policy name. Only alphanumeric characters and =,.@_- are allowed.")

// ValidPolicyName reports whether name is accepted for a new policy.
func ValidPolicyName(name string) bool {
	return policyName.MatchString(name)
}

// Policy is an access policy of the organization.
type Policy struct {
	ID               string    `xml:"PolicyId" json:"id"`
	Name             string    `xml:"PolicyName" json:"name"`
	Resource         string    `xml:"Arn" json:"resource"`
	Description      string    `xml:"Description" json:"description,omitempty"`
	AttachmentCount  int       `xml:"AttachmentCount" json:"attachments"`
	DefaultVersionID string    `xml:"DefaultVersionId" json:"-"`
	Created          time.Time `xml:"CreateDate" json:"created"`
	Updated          time.Time `xml:"UpdateDate" json:"updated"`

	// Document is only filled by GetPolicy.
	Document string `xml:"-" json:"document,omitempty"`
}

type listPoliciesResponse struct {
	Policies    []Policy `xml:"ListPoliciesResult>Policies>member"`
	IsTruncated bool     `xml:"ListPoliciesResult>IsTruncated"`
	Marker      string   `xml:"ListPoliciesResult>Marker"`
}

type policyResponse struct {
	Get    *Policy `xml:"GetPolicyResult>Policy"`
	Create *Policy `xml:"CreatePolicyResult>Policy"`
}

func (r policyResponse) policy() Policy {
	switch {
	case r.Get != nil:
		return *r.Get
	case r.Create != nil:
		return *r.Create
	}
	return Policy{}
}

type policyVersionResponse struct {
	Document string `xml:"GetPolicyVersionResult>PolicyVersion>Document"`
}

// ListPolicies returns every policy, following pagination markers.
func (c *Client) ListPolicies(ctx context.Context) ([]Policy, error) {
	var all []Policy
	marker := ""
	for {
		params := url.Values{"Scope": {"Local"}}
		if marker != "" {
			params.Set("Marker", marker)
		}
		var resp listPoliciesResponse
		if err := c.do(ctx, "ListPolicies", params, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Policies...)
		if !resp.IsTruncated || resp.Marker == "" {
			return all, nil
		}
		marker = resp.Marker
	}
}

// ResolvePolicyARN accepts an ARN or a policy name.
func (c *Client) ResolvePolicyARN(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "arn:") {
		return ref, nil
	}
	policies, err := c.ListPolicies(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range policies {
		if p.Name == ref || p.ID == ref {
			return p.Resource, nil
		}
	}
	return "", fmt.Errorf("Policy '%s' not found", ref)
}

// GetPolicy returns a policy with its default version document.
func (c *Client) GetPolicy(ctx context.Context, ref string) (*Policy, error) {
	arn, err := c.ResolvePolicyARN(ctx, ref)
	if err != nil {
		return nil, err
	}

	var resp policyResponse
	if err := c.do(ctx, "GetPolicy", url.Values{"PolicyArn": {arn}}, &resp); err != nil {
		return nil, err
	}
	p := resp.policy()

	if p.DefaultVersionID != "" {
		var v policyVersionResponse
		params := url.Values{"PolicyArn": {arn}, "VersionId": {p.DefaultVersionID}}
		if err := c.do(ctx, "GetPolicyVersion", params, &v); err != nil {
			return nil, err
		}
		doc, err := url.QueryUnescape(v.Document)
		if err != nil {
			doc = v.Document
		}
		p.Document = doc
	}
	return &p, nil
}

// CreatePolicy adds a policy. document must be valid JSON.
func (c *Client) CreatePolicy(ctx context.Context, name, document, description string) (*Policy, error) {
	if !ValidPolicyName(name) {
		return nil, ErrInvalidPolicyName
	}
	if !json.Valid([]byte(document)) {
		return nil, errors.New("Invalid JSON in policy document")
	}

	params := url.Values{
		"PolicyName":     {name},
		"PolicyDocument": {document},
	}
	if description != "" {
		params.Set("Description", description)
	}

	var resp policyResponse
	if err := c.do(ctx, "CreatePolicy", params, &resp); err != nil {
		return nil, err
	}
	p := resp.policy()
	return &p, nil
}

// EditPolicy makes document the default version of a policy and updates
// its description. Either may be empty to keep the current value.
func (c *Client) EditPolicy(ctx context.Context, ref, document, description string) (*Policy, error) {
	if document == "" && description == "" {
		return nil, errors.New("Either --document or --description is required.")
	}
	if document != "" && !json.Valid([]byte(document)) {
		return nil, errors.New("Invalid JSON in policy document")
	}
	current, err := c.GetPolicy(ctx, ref)
	if err != nil {
		return nil, err
	}
	if document == "" {
		document = current.Document
	}
	if description == "" {
		description = current.Description
	}

	params := url.Values{
		"PolicyArn":      {current.Resource},
		"PolicyDocument": {document},
		"SetAsDefault":   {"true"},
	}
	if description != "" {
		params.Set("Description", description)
	}
	if err := c.do(ctx, "CreatePolicyVersion", params, nil); err != nil {
		return nil, err
	}
	current.Document, current.Description = document, description
	return current, nil
}

// DeletePolicy removes a policy by name or ARN.
func (c *Client) DeletePolicy(ctx context.Context, ref string) error {
	arn, err := c.ResolvePolicyARN(ctx, ref)
	if err != nil {
		return err
	}
	return c.do(ctx, "DeletePolicy", url.Values{"PolicyArn": {arn}}, nil)
}

// Statement is one entry of a policy document.
type Statement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

// Document is an IAM policy document.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// BucketPolicy builds a document granting read access to readBuckets and
// read-write access to writeBuckets.
func BucketPolicy(readBuckets, writeBuckets []string) (string, error) {
	doc := Document{Version: "2012-10-17"}
	if len(readBuckets) > 0 {
		doc.Statement = append(doc.Statement, Statement{
			Effect:   "Allow",
			Action:   []string{"s3:GetObject", "s3:ListBucket"},
			Resource: bucketResources(readBuckets),
		})
	}
	if len(writeBuckets) > 0 {
		doc.Statement = append(doc.Statement, Statement{
			Effect:   "Allow",
			Action:   []string{"s3:GetObject", "s3:ListBucket", "s3:PutObject", "s3:DeleteObject"},
			Resource: bucketResources(writeBuckets),
		})
	}
	if len(doc.Statement) == 0 {
		return "", errors.New("at least one bucket is required")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func bucketResources(buckets []string) []string {
	out := make([]string, 0, 2*len(buckets))
	for _, b := range buckets {
		out = append(out, "arn:aws:s3:::"+b, "arn:aws:s3:::"+b+"/*")
	}
	return out
}
