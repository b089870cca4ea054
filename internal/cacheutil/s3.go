// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	awsx "github.com/staranto/watchtowergo/internal/aws"
)

// S3API is the slice of the S3 client the store needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3v2.ListObjectsV2Input, optFns ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error)
}

// S3Store keeps cache files as objects under a bucket prefix.
type S3Store struct {
	client S3API
	root   string
	bucket string
	prefix string
}

// NewS3Store builds a store for an s3://bucket/prefix data root using the
// shell's AWS configuration. s3://bucket/prefix?endpoint=http://localhost:9000&path_style=true
// targets an S3-compatible server.
func NewS3Store(ctx context.Context, root string) (*S3Store, error) {
	loc, err := awsx.ParseURL(root)
	if err != nil {
		return nil, err
	}

	cfg, err := awsx.LoadAWSConfig(ctx, loc.Options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3StoreWithClient(awsx.NewS3(cfg, loc.ClientOptions()...), root)
}

// NewS3StoreWithClient builds a store around an existing client.
func NewS3StoreWithClient(client S3API, root string) (*S3Store, error) {
	loc, err := awsx.ParseURL(root)
	if err != nil {
		return nil, err
	}
	return &S3Store{
		client: client,
		root:   root,
		bucket: loc.Bucket,
		prefix: loc.Prefix,
	}, nil
}

func (s *S3Store) Root() string { return s.root }

func (s *S3Store) key(rel string) string {
	if s.prefix == "" {
		return rel
	}
	return path.Join(s.prefix, rel)
}

func (s *S3Store) Read(ctx context.Context, rel string) ([]byte, error) {
	key := s.key(rel)
	out, err := s.client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, ErrNotExist)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}
	return bytes.TrimSpace(b), nil
}

// Write puts data at rel. There are no directories to create.
func (s *S3Store) Write(ctx context.Context, rel string, data []byte) error {
	key := s.key(rel)
	_, err := s.client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:      awsv2.String(s.bucket),
		Key:         awsv2.String(key),
		Body:        bytes.NewReader(data),
		ContentType: awsv2.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}
	log.Debugf("wrote cache object s3://%s/%s", s.bucket, key)
	return nil
}

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	input := &s3v2.ListObjectsV2Input{Bucket: awsv2.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = awsv2.String(s.prefix + "/")
	}

	var result []string
	paginator := s3v2.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			rel := strings.TrimPrefix(awsv2.ToString(obj.Key), s.prefix+"/")
			if s.prefix == "" {
				rel = awsv2.ToString(obj.Key)
			}
			if _, ok := KeyFromRelPath(rel); ok {
				result = append(result, rel)
			}
		}
	}
	sort.Strings(result)
	return result, nil
}

// isNotFound matches the error codes S3 and compatible servers use for a
// missing key.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
