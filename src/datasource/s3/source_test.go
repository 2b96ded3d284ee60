package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	GetObjectFunc func(ctx context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error)
}

func (m *mockClient) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.GetObjectFunc(ctx, params)
}

func TestSourceOpenUsesPrefix(t *testing.T) {
	var gotBucket, gotKey string
	client := &mockClient{GetObjectFunc: func(_ context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		gotBucket = aws.ToString(params.Bucket)
		gotKey = aws.ToString(params.Key)
		return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("a,b\n1,2\n"))}, nil
	}}

	src := NewWithClient(client, "flights", "exports/2015")
	rc, err := src.Open(context.Background(), "grafico_01_dados.csv")
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(body))
	assert.Equal(t, "flights", gotBucket)
	assert.Equal(t, "exports/2015/grafico_01_dados.csv", gotKey)
	assert.Equal(t, "s3://flights/exports/2015/grafico_01_dados.csv", src.Location("grafico_01_dados.csv"))
}

func TestSourceOpenWrapsError(t *testing.T) {
	boom := errors.New("access denied")
	client := &mockClient{GetObjectFunc: func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return nil, boom
	}}

	src := NewWithClient(client, "flights", "")
	_, err := src.Open(context.Background(), "x.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "s3://flights/x.csv")
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
