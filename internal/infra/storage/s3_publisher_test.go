package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada/backoffice/internal/config"
	"github.com/hromada/backoffice/pkg/logger"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

const snapshot = `{"registry":{"name":"street-names"},"records":[{"name":"Шевченка"}]}`

func TestS3Publisher_Publish(t *testing.T) {
	fake := &fakeS3{}
	p := newS3Publisher(fake, config.StorageConfig{Bucket: "open-data"}, logger.NewNop())

	location, err := p.Publish(context.Background(), "open-data/street-names/20240506T030000Z.json", strings.NewReader(snapshot))
	require.NoError(t, err)

	assert.Equal(t, "s3://open-data/open-data/street-names/20240506T030000Z.json", location)
	assert.Equal(t, "open-data", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "application/json; charset=utf-8", aws.ToString(fake.input.ContentType))
	assert.Nil(t, fake.input.ContentEncoding)
	assert.Equal(t, int64(len(snapshot)), aws.ToInt64(fake.input.ContentLength))
	assert.Equal(t, snapshot, string(fake.body))
}

func TestS3Publisher_Publish_Compressed(t *testing.T) {
	fake := &fakeS3{}
	cfg := config.StorageConfig{Bucket: "open-data", Compress: true, PublicBaseURL: "https://data.hromada.gov.ua/"}
	p := newS3Publisher(fake, cfg, logger.NewNop())

	location, err := p.Publish(context.Background(), "street-names/x.json", strings.NewReader(snapshot))
	require.NoError(t, err)

	assert.Equal(t, "https://data.hromada.gov.ua/street-names/x.json", location)
	assert.Equal(t, "gzip", aws.ToString(fake.input.ContentEncoding))
	assert.Equal(t, int64(len(fake.body)), aws.ToInt64(fake.input.ContentLength))

	zr, err := gzip.NewReader(strings.NewReader(string(fake.body)))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, snapshot, string(plain))
}

func TestS3Publisher_Publish_Errors(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		p := newS3Publisher(&fakeS3{err: errors.New("access denied")}, config.StorageConfig{Bucket: "b"}, logger.NewNop())

		_, err := p.Publish(context.Background(), "k.json", strings.NewReader("{}"))
		assert.ErrorContains(t, err, "failed to upload k.json: access denied")
	})

	t.Run("body", func(t *testing.T) {
		fake := &fakeS3{}
		p := newS3Publisher(fake, config.StorageConfig{Bucket: "b"}, logger.NewNop())

		_, err := p.Publish(context.Background(), "k.json", io.MultiReader(strings.NewReader("{"), errReader{}))
		assert.ErrorContains(t, err, "failed to read snapshot")
		assert.Nil(t, fake.input)
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("stream broken") }

func TestNewS3Publisher_RequiresBucket(t *testing.T) {
	_, err := NewS3Publisher(context.Background(), config.StorageConfig{}, logger.NewNop())
	assert.EqualError(t, err, "storage bucket is required")
}
