// Package cloud moves participant imaging data between local disk and an
// Amazon S3 bucket: listing bucket contents into a participant sublist,
// downloading a participant's scans, and uploading pipeline outputs.
//
// Transfer reliability (retries, multipart splitting) is delegated entirely
// to the AWS SDK's transfer manager.
package cloud

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"qap/pkg/config"
	"qap/pkg/sublist"
)

// Client wraps an S3 client with the bucket layout from the pipeline
// configuration.
type Client struct {
	s3         *s3.Client
	downloader *manager.Downloader
	uploader   *manager.Uploader

	bucket       string
	bucketPrefix string
	localPrefix  string
}

// New builds a transfer client from the pipeline configuration. When a
// credentials file is configured it is used; otherwise the ambient AWS
// credential chain applies.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.S3.BucketName == "" {
		return nil, fmt.Errorf("no S3 bucket name configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.CredsPath != "" {
		opts = append(opts, awsconfig.WithSharedCredentialsFiles([]string{cfg.S3.CredsPath}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return &Client{
		s3:           client,
		downloader:   manager.NewDownloader(client),
		uploader:     manager.NewUploader(client),
		bucket:       cfg.S3.BucketName,
		bucketPrefix: cfg.S3.BucketPrefix,
		localPrefix:  cfg.S3.LocalPrefix,
	}, nil
}

// ListScans lists the bucket under the configured prefix and indexes the
// object keys into a participant sublist. imgType is "anat" or "rest" and
// filters by scan directory name, the same convention the local generator
// uses. An empty result is an error.
func (c *Client) ListScans(ctx context.Context, imgType string) (sublist.DataDict, error) {
	// A trailing slash keeps sibling directories that share the prefix as a
	// substring out of the listing.
	prefix := c.bucketPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var keys []string
	p := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", c.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	dict, err := sublistFromKeys(c.bucket, keys, imgType)
	if err != nil {
		return nil, err
	}
	return dict, nil
}

// sublistFromKeys indexes raw object keys laid out as
// .../participant/session/scan/file into a data dictionary, keeping only
// scans whose directory name contains imgType.
func sublistFromKeys(bucket string, keys []string, imgType string) (sublist.DataDict, error) {
	resource := sublist.ResourceFunctional
	if imgType == "anat" {
		resource = sublist.ResourceAnatomical
	}

	dict := make(sublist.DataDict)
	for _, key := range keys {
		segs := strings.Split(strings.Trim(key, "/"), "/")
		if len(segs) < 4 {
			continue
		}

		participant := segs[len(segs)-4]
		session := segs[len(segs)-3]
		scan := segs[len(segs)-2]
		if !strings.Contains(scan, imgType) {
			continue
		}

		site := ""
		if len(segs) >= 5 {
			site = segs[len(segs)-5]
		}

		dict.Add(resource, site, participant, session, scan, "s3://"+path.Join(bucket, key))
	}

	if len(dict) == 0 {
		return nil, fmt.Errorf("no %q scans found in the S3 bucket listing", imgType)
	}

	return dict, nil
}

// localPathFor maps an "s3://" path onto the local mirror directory by
// swapping the bucket prefix for the local prefix.
func (c *Client) localPathFor(s3path string) (string, error) {
	key := strings.TrimPrefix(s3path, "s3://")
	key = strings.TrimPrefix(key, c.bucket+"/")

	if c.bucketPrefix != "" && !strings.HasPrefix(key, c.bucketPrefix) {
		return "", fmt.Errorf("bucket prefix %q does not match S3 path %q", c.bucketPrefix, s3path)
	}

	local := key
	if c.bucketPrefix != "" {
		local = strings.Replace(key, c.bucketPrefix, c.localPrefix, 1)
	} else {
		local = filepath.Join(c.localPrefix, key)
	}
	return filepath.FromSlash(local), nil
}

// DownloadPath downloads a single "s3://" path to its mirrored local
// location and returns the local filepath. Files that already exist
// locally are not fetched again.
func (c *Client) DownloadPath(ctx context.Context, s3path string) (string, error) {
	local, err := c.localPathFor(s3path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	key := strings.TrimPrefix(strings.TrimPrefix(s3path, "s3://"), c.bucket+"/")

	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}
	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	defer f.Close()

	_, err = c.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(local)
		return "", fmt.Errorf("downloading %s: %w", s3path, err)
	}

	return local, nil
}

// DownloadParticipant downloads every file of the index-th participant
// (0-based over the sorted participant IDs) and returns a single-participant
// dictionary with the paths rewritten to their local locations.
func (c *Client) DownloadParticipant(ctx context.Context, dict sublist.DataDict, index int) (sublist.DataDict, error) {
	ids := make([]string, 0, len(dict))
	for id := range dict {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if index < 0 || index >= len(ids) {
		return nil, fmt.Errorf("participant index %d out of range (%d participants)", index, len(ids))
	}
	participant := ids[index]

	local := make(sublist.DataDict)
	for session, sess := range dict[participant] {
		for _, scans := range []struct {
			resource string
			m        map[string]string
		}{
			{sublist.ResourceAnatomical, sess.Anatomical},
			{sublist.ResourceFunctional, sess.Functional},
		} {
			for scan, s3path := range scans.m {
				localPath, err := c.DownloadPath(ctx, s3path)
				if err != nil {
					return nil, err
				}
				local.Add(scans.resource, sess.SiteName, participant, session, scan, localPath)
			}
		}
	}

	return local, nil
}

// UploadOutputs walks the output directory and uploads every file under it,
// mirroring the directory layout under the bucket prefix.
func (c *Client) UploadOutputs(ctx context.Context, outputDir string) error {
	outputDir = filepath.Clean(outputDir)

	return filepath.Walk(outputDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(outputDir, p)
		if err != nil {
			return err
		}
		key := path.Join(c.bucketPrefix, filepath.ToSlash(rel))

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("opening output file %s: %w", p, err)
		}
		defer f.Close()

		_, err = c.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		if err != nil {
			return fmt.Errorf("uploading %s to s3://%s/%s: %w", p, c.bucket, key, err)
		}
		return nil
	})
}
