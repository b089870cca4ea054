// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	b, ok := f.objects[awsv2.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found"}
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[awsv2.ToString(in.Key)] = b
	return &s3v2.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3v2.ListObjectsV2Input, _ ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &s3v2.ListObjectsV2Output{}
	prefix := awsv2.ToString(in.Prefix)
	for _, k := range keys {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out.Contents = append(out.Contents, types.Object{Key: awsv2.String(k)})
		}
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{
		"other/users/x/activity.json": []byte("[]"),
	}}

	store, err := NewS3StoreWithClient(fake, "s3://bucket/team")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/team", store.Root())

	rel := Key{Owner: "acme", Project: "widget"}.RelPath()

	_, err = store.Read(ctx, rel)
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, store.Write(ctx, rel, []byte(" [1] \n")))
	assert.Contains(t, fake.objects, "team/projects/acme/widget/commits.json")

	got, err := store.Read(ctx, rel)
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(got))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"projects/acme/widget/commits.json"}, list)
}

func TestS3Store_BadRoot(t *testing.T) {
	_, err := NewS3StoreWithClient(&fakeS3{}, "s3:///nobucket")
	assert.Error(t, err)
}
