package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/Pimboto/VideoLab/internal/config"
	"github.com/Pimboto/VideoLab/internal/media"
)

// S3Library lists and moves batch media through an S3-compatible
// bucket: sources are downloaded to a job-local temp dir, outputs are
// uploaded under the outputs prefix.
type S3Library struct {
	bucket        string
	videosPrefix  string
	audiosPrefix  string
	outputsPrefix string
	api           *awss3.Client
	upl           *manager.Uploader
	dl            *manager.Downloader
}

func NewS3Library(ctx context.Context, settings config.Settings) (*S3Library, error) {
	if err := settings.ValidateS3(); err != nil {
		return nil, err
	}

	endpoint := settings.S3Endpoint
	forcePathStyle := !strings.Contains(endpoint, "amazonaws.com")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(settings.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(settings.S3AccessKey, settings.S3SecretKey, "")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.UsePathStyle = forcePathStyle
		o.BaseEndpoint = &endpoint
	})

	return &S3Library{
		bucket:        settings.S3Bucket,
		videosPrefix:  settings.VideosPrefix,
		audiosPrefix:  settings.AudiosPrefix,
		outputsPrefix: settings.OutputsPrefix,
		api:           client,
		upl:           manager.NewUploader(client),
		dl:            manager.NewDownloader(client),
	}, nil
}

func (s *S3Library) ListVideos(ctx context.Context, subfolder string) ([]string, error) {
	return s.listByExt(ctx, joinPrefix(s.videosPrefix, subfolder), media.VideoExtensions)
}

func (s *S3Library) ListAudios(ctx context.Context, subfolder string) ([]string, error) {
	return s.listByExt(ctx, joinPrefix(s.audiosPrefix, subfolder), media.AudioExtensions)
}

func (s *S3Library) listByExt(ctx context.Context, prefix string, exts map[string]bool) ([]string, error) {
	var keys []string
	p := awss3.NewListObjectsV2Paginator(s.api, &awss3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "list %s", prefix)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	keys = lo.Filter(keys, func(k string, _ int) bool {
		return exts[strings.ToLower(path.Ext(k))]
	})
	sort.Strings(keys)
	return keys, nil
}

// Fetch downloads a key into localDir under its base name.
func (s *S3Library) Fetch(ctx context.Context, key, localDir string) (string, error) {
	localPath := filepath.Join(localDir, path.Base(key))
	f, err := os.Create(localPath)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", localPath)
	}
	defer f.Close()

	if _, err := s.dl.Download(ctx, f, &awss3.GetObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		os.Remove(localPath)
		return "", errors.Wrapf(err, "download %s", key)
	}
	return localPath, nil
}

// Store uploads a finished output under the outputs prefix.
func (s *S3Library) Store(ctx context.Context, localPath, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", localPath)
	}
	defer f.Close()

	key := joinPrefix(s.outputsPrefix, "") + name
	contentType := "video/mp4"
	if strings.EqualFold(filepath.Ext(name), ".avi") {
		contentType = "video/x-msvideo"
	}
	_, err = s.upl.Upload(ctx, &awss3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "upload %s", key)
	}
	return key, nil
}

// Cleanup removes the temp file Fetch created.
func (s *S3Library) Cleanup(localPath string) {
	if localPath != "" {
		_ = os.Remove(localPath)
	}
}

func joinPrefix(prefix, subfolder string) string {
	p := strings.Trim(prefix, "/")
	if sub := strings.Trim(subfolder, "/"); sub != "" {
		if p != "" {
			p += "/"
		}
		p += sub
	}
	if p == "" {
		return ""
	}
	return p + "/"
}
