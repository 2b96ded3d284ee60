// Package s3 从 S3 兼容的对象存储读取数据文件
package s3

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultRegion 配置未指定区域时使用
const DefaultRegion = "us-east-1"

// GetObjectAPI 数据源用到的 S3 客户端方法，测试中可替换
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config 桶位置
type Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // MinIO 等兼容服务地址
}

// Source 打开 Bucket/Prefix 下的对象
type Source struct {
	client GetObjectAPI
	bucket string
	prefix string
}

// New 使用默认 AWS 凭证链创建数据源
func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 source: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient 包装已有客户端
func NewWithClient(client GetObjectAPI, bucket, prefix string) *Source {
	return &Source{client: client, bucket: bucket, prefix: prefix}
}

func (s *Source) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Open 获取对象内容，由调用方关闭
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", s.bucket, s.key(name), err)
	}
	return out.Body, nil
}

// Location 返回对象地址，用于日志
func (s *Source) Location(name string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key(name))
}
