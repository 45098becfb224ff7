package main

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/stlindex/blobstore"
	"github.com/hupe1980/stlindex/blobstore/minio"
	"github.com/hupe1980/stlindex/blobstore/s3"
)

// Location schemes accepted for inputs and outputs.
const (
	schemeFile  = "file"
	schemeS3    = "s3"
	schemeMinio = "minio"
)

// location is a parsed input or output reference.
type location struct {
	scheme string
	bucket string
	// dir is the local directory or the key prefix inside bucket.
	dir  string
	name string
}

// parseLocation splits "s3://bucket/key", "minio://bucket/key" or a local
// path into a store root and a blob name.
func parseLocation(ref string) (location, error) {
	scheme, rest, ok := strings.Cut(ref, "://")
	if !ok {
		dir, name := filepath.Split(filepath.Clean(ref))
		if dir == "" {
			dir = "."
		}
		return location{scheme: schemeFile, dir: dir, name: name}, nil
	}

	switch scheme {
	case schemeS3, schemeMinio:
	default:
		return location{}, fmt.Errorf("unsupported location scheme %q", scheme)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return location{}, fmt.Errorf("location %q must name a bucket and an object key", ref)
	}
	dir, name := path.Split(key)
	return location{scheme: scheme, bucket: bucket, dir: dir, name: name}, nil
}

func (l location) String() string {
	if l.scheme == schemeFile {
		return filepath.Join(l.dir, l.name)
	}
	return l.scheme + "://" + l.bucket + "/" + l.dir + l.name
}

// withName returns l with the blob name replaced.
func (l location) withName(name string) location {
	l.name = name
	return l
}

// defaultOutput derives the output location for input: the input's base
// name with a .sidx extension in the working directory.
func defaultOutput(input location) location {
	base := strings.TrimSuffix(input.name, path.Ext(input.name))
	return location{scheme: schemeFile, dir: ".", name: base + ".sidx"}
}

// storeFactory opens the blob store behind a location.
type storeFactory struct {
	cfg Config
}

func (f storeFactory) open(ctx context.Context, l location) (blobstore.Store, error) {
	switch l.scheme {
	case schemeFile:
		return blobstore.NewLocalStore(l.dir), nil

	case schemeS3:
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return s3.NewStore(awss3.NewFromConfig(awsCfg), l.bucket, l.dir), nil

	case schemeMinio:
		if f.cfg.MinioEndpoint == "" {
			return nil, fmt.Errorf("%s requires --minio-endpoint", l)
		}
		client, err := minio.NewClient(f.cfg.MinioEndpoint, !f.cfg.MinioInsecure)
		if err != nil {
			return nil, err
		}
		return minio.NewStore(client, l.bucket, l.dir), nil

	default:
		return nil, fmt.Errorf("unsupported location scheme %q", l.scheme)
	}
}
