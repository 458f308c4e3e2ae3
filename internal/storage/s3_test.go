package storage

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
)

func TestS3StorageURLEscapesSegments(t *testing.T) {
	s := &S3Storage{bucket: "news", publicURL: "https://files.example.com/news"}

	assert.Equal(t, "https://files.example.com/news/uploads/March_2024/a.pdf", s.URL("uploads/March_2024/a.pdf"))
	assert.Equal(t,
		"https://files.example.com/news/uploads/March_2024/my%20file_%E0%B8%A0%E0%B8%B2%E0%B8%9E.png",
		s.URL("uploads/March_2024/my file_ภาพ.png"),
	)
}

func TestS3StoragePutObjectInput(t *testing.T) {
	s := &S3Storage{bucket: "news"}

	in := s.putObjectInput("uploads/a.pdf", strings.NewReader("x"), "application/pdf")
	assert.Equal(t, "news", aws.ToString(in.Bucket))
	assert.Equal(t, "uploads/a.pdf", aws.ToString(in.Key))
	assert.Equal(t, "application/pdf", aws.ToString(in.ContentType))
	assert.Nil(t, in.ContentDisposition)

	in = s.putObjectInput("uploads/x.svg", strings.NewReader("x"), "image/svg+xml")
	assert.Equal(t, "application/octet-stream", aws.ToString(in.ContentType))
	assert.Equal(t, "attachment", aws.ToString(in.ContentDisposition))

	in = s.putObjectInput("uploads/a.png", strings.NewReader("x"), "")
	assert.Equal(t, "application/octet-stream", aws.ToString(in.ContentType))
}
