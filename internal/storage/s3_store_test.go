package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut {
		return nil, errors.New("access denied")
	}
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

type fakePresigner struct {
	gotExpires time.Duration
}

func (p *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	p.gotExpires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)}, nil
}

func TestS3StorePutGetDelete(t *testing.T) {
	api := newFakeS3()
	store := NewS3StoreWithAPI(api, &fakePresigner{}, "claims")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "t/c/uploads/x_a.pdf", []byte("pdf-bytes"), ""))
	assert.Equal(t, "application/octet-stream", api.types["t/c/uploads/x_a.pdf"])

	data, err := store.Get(ctx, "t/c/uploads/x_a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf-bytes"), data)

	require.NoError(t, store.Delete(ctx, "t/c/uploads/x_a.pdf"))
	_, err = store.Get(ctx, "t/c/uploads/x_a.pdf")
	assert.Error(t, err)
}

func TestS3StorePutWrapsError(t *testing.T) {
	api := newFakeS3()
	api.failPut = true
	store := NewS3StoreWithAPI(api, &fakePresigner{}, "claims")

	err := store.Put(context.Background(), "k", []byte("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put object k failed")
}

func TestS3StoreSignURL(t *testing.T) {
	presigner := &fakePresigner{}
	store := NewS3StoreWithAPI(newFakeS3(), presigner, "claims")

	url, err := store.SignURL(context.Background(), "t/c/response/response_c.json", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/claims/t/c/response/response_c.json", url)
	assert.Equal(t, 15*time.Minute, presigner.gotExpires)
}

func TestKeys(t *testing.T) {
	key := UploadKey("tenant", "case", "police report.pdf")
	assert.True(t, strings.HasPrefix(key, "tenant/case/uploads/"))
	assert.True(t, strings.HasSuffix(key, "_police report.pdf"))
	assert.Regexp(t, `^tenant/case/uploads/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_police report\.pdf$`, key)
	assert.NotEqual(t, key, UploadKey("tenant", "case", "police report.pdf"))

	assert.Equal(t, "tenant/case/response/response_case.json", ResponseKey("tenant", "case"))
	assert.True(t, strings.HasSuffix(UploadKey("t", "c", "../x"), "_.._x"))
	assert.True(t, strings.HasSuffix(UploadKey("t", "c", ""), "_upload"))
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "pdf", FileType("a.PDF"))
	assert.Equal(t, "text", FileType("manual_input.txt"))
	assert.Equal(t, "docx", FileType("statement.docx"))
	assert.Equal(t, "response_json", FileType("response_c.json"))
	assert.Equal(t, "other", FileType("photo.jpg"))
}
