// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// options holds optional overrides for AWS config loading.
type options struct {
	profile string
	region  string
}

// Option customizes how AWS config is loaded.
// Default behavior (no options) inherits the shell environment and shared
// config chain (AWS_PROFILE, ~/.aws/config, ~/.aws/credentials, IMDS, etc.).
type Option func(*options)

// WithProfile sets the shared config profile. Defaults to AWS_PROFILE/env chain.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override. Defaults to env/profile/metadata chain.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// LoadAWSConfig loads AWS SDK v2 config. By default it inherits the shell's
// AWS setup. Options can override profile and region without changing callers.
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// NewS3 constructs a v2 S3 client from the provided config. Additional service
// options can be supplied via optFns.
func NewS3(cfg awsv2.Config, optFns ...func(*s3v2.Options)) *s3v2.Client {
	return s3v2.NewFromConfig(cfg, optFns...)
}

// WithPathStyle forces path-style addressing, which S3-compatible servers
// such as MinIO usually need.
func WithPathStyle() func(*s3v2.Options) {
	return func(o *s3v2.Options) {
		o.UsePathStyle = true
	}
}

// WithEndpoint points the client at an S3-compatible server.
func WithEndpoint(endpoint string) func(*s3v2.Options) {
	return func(o *s3v2.Options) {
		o.BaseEndpoint = awsv2.String(endpoint)
	}
}

// Location is a parsed s3://bucket/prefix URL. Query parameters region and
// profile select the AWS config; endpoint and path_style tune the client.
type Location struct {
	Bucket    string
	Prefix    string
	Region    string
	Profile   string
	Endpoint  string
	PathStyle bool
}

// ParseURL splits an s3:// URL into bucket and key prefix.
func ParseURL(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid s3 url %q: %w", raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Location{}, fmt.Errorf("invalid s3 url %q: want s3://bucket[/prefix]", raw)
	}

	q := u.Query()
	loc := Location{
		Bucket:   u.Host,
		Prefix:   strings.Trim(u.Path, "/"),
		Region:   q.Get("region"),
		Profile:  q.Get("profile"),
		Endpoint: q.Get("endpoint"),
	}
	if v := q.Get("path_style"); v != "" {
		loc.PathStyle, err = strconv.ParseBool(v)
		if err != nil {
			return Location{}, fmt.Errorf("invalid s3 url %q: path_style: %w", raw, err)
		}
	}
	return loc, nil
}

// Options returns the config options implied by the location.
func (l Location) Options() []Option {
	var opts []Option
	if l.Profile != "" {
		opts = append(opts, WithProfile(l.Profile))
	}
	if l.Region != "" {
		opts = append(opts, WithRegion(l.Region))
	}
	return opts
}

// ClientOptions returns the S3 client options implied by the location.
func (l Location) ClientOptions() []func(*s3v2.Options) {
	var opts []func(*s3v2.Options)
	if l.Endpoint != "" {
		opts = append(opts, WithEndpoint(l.Endpoint))
	}
	if l.PathStyle {
		opts = append(opts, WithPathStyle())
	}
	return opts
}
