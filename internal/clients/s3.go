package clients

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/vodarc/vodarc/internal/transfer"
)

// ObjectStore is the multipart surface the pipeline needs from the object
// store: open a transfer, send numbered parts, close or abort it.
type ObjectStore interface {
	transfer.PartStore

	CreateTransfer(ctx context.Context, bucket, key, contentType string) (uploadID string, err error)
	CompleteTransfer(ctx context.Context, bucket, key, uploadID string, tags []transfer.PartTag) (location string, err error)
	AbortTransfer(ctx context.Context, bucket, key, uploadID string) error
}

type s3Client struct {
	client *s3.S3
}

type S3Options struct {
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
	DisableSSL     bool
}

func NewS3Client(opts S3Options) (ObjectStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(opts.Region),
		Endpoint:         aws.String(opts.Endpoint),
		DisableSSL:       aws.Bool(opts.DisableSSL),
		S3ForcePathStyle: aws.Bool(opts.ForcePathStyle),
		HTTPClient:       &http.Client{},
		Credentials:      credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 session: %w", err)
	}
	return &s3Client{client: s3.New(sess)}, nil
}

func (c *s3Client) CreateTransfer(ctx context.Context, bucket, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	out, err := c.client.CreateMultipartUploadWithContext(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.UploadId), nil
}

// SendPart uploads one part. The store keys parts by number, so re-sending
// the same part number replaces the earlier upload.
func (c *s3Client) SendPart(ctx context.Context, bucket, key, uploadID string, partNumber int, body []byte) (string, error) {
	out, err := c.client.UploadPartWithContext(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int64(int64(partNumber)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.ETag), nil
}

func (c *s3Client) CompleteTransfer(ctx context.Context, bucket, key, uploadID string, tags []transfer.PartTag) (string, error) {
	parts := make([]*s3.CompletedPart, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, &s3.CompletedPart{
			PartNumber: aws.Int64(int64(t.PartNumber)),
			ETag:       aws.String(t.ETag),
		})
	}

	out, err := c.client.CompleteMultipartUploadWithContext(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &s3.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.Location), nil
}

func (c *s3Client) AbortTransfer(ctx context.Context, bucket, key, uploadID string) error {
	_, err := c.client.AbortMultipartUploadWithContext(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	return err
}

// TransientErr reports whether an S3 failure is worth an inline retry:
// throttling, request timeouts, connection drops. Malformed requests and
// access errors are not.
func (c *s3Client) TransientErr(err error) bool {
	if err == nil {
		return false
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case "RequestTimeout", "SlowDown", "InternalError", "ServiceUnavailable":
			return true
		}
	}
	return request.IsErrorRetryable(err) || request.IsErrorThrottle(err)
}
