package loader

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"dwhctl/internal/config"
	"dwhctl/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the part of the S3 client the preflight uses.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// ParseS3URI splits s3://bucket/key into its parts.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(config.Unquote(uri))
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.ValidationError("s3 uri", uri, "expected s3://bucket/prefix")
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// CheckSources verifies that both source prefixes hold at least one object and
// that the JSONPaths file exists.
func CheckSources(ctx context.Context, client S3API, src Sources) error {
	for _, prefix := range []struct{ key, uri string }{
		{"S3.LOG_DATA", src.LogData},
		{"S3.SONG_DATA", src.SongData},
	} {
		if err := checkPrefix(ctx, client, prefix.key, prefix.uri); err != nil {
			return err
		}
	}
	return checkObject(ctx, client, "S3.LOG_JSONPATH", src.LogJSONPath)
}

func checkPrefix(ctx context.Context, client S3API, field, uri string) error {
	bucket, prefix, err := ParseS3URI(uri)
	if err != nil {
		return err
	}

	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return sourceError(err, field, uri)
	}
	if aws.ToInt32(out.KeyCount) == 0 && len(out.Contents) == 0 {
		return errors.New(errors.ErrCodeSourceNotFound, fmt.Sprintf("no objects under %s", uri)).
			WithContext("field", field).
			WithSuggestions(fmt.Sprintf("Check %s in dwh.cfg", field))
	}
	return nil
}

func checkObject(ctx context.Context, client S3API, field, uri string) error {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return err
	}
	if _, err := client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}); err != nil {
		return sourceError(err, field, uri)
	}
	return nil
}

func sourceError(err error, field, uri string) error {
	code := errors.ErrCodeSourceAccess
	var apiErr smithy.APIError
	if goerrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			code = errors.ErrCodeSourceNotFound
		}
	}
	return errors.Wrap(err, code, fmt.Sprintf("cannot read %s", uri)).
		WithContext("field", field).
		WithSuggestions(fmt.Sprintf("Check %s in dwh.cfg and the AWS credentials", field))
}

// CheckLocalSources verifies that both directories exist.
func CheckLocalSources(src LocalSources) error {
	for _, dir := range []struct{ key, path string }{
		{"LOCAL.LOG_DATA_DIR", src.LogDir},
		{"LOCAL.SONG_DATA_DIR", src.SongDir},
	} {
		info, err := os.Stat(dir.path)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSourceNotFound, fmt.Sprintf("cannot read %s", dir.path)).
				WithContext("field", dir.key)
		}
		if !info.IsDir() {
			return errors.New(errors.ErrCodeSourceNotFound, fmt.Sprintf("%s is not a directory", dir.path)).
				WithContext("field", dir.key)
		}
	}
	return nil
}
