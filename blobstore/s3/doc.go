// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "meshes/")
//	mesh, err := stlindex.LoadBlob(ctx, store, "bracket.stl")
//
// # Features
//
//   - HeadObject size probing and ranged GetObject reads
//   - Whole-object downloads through the transfer manager's Downloader
//   - Multipart uploads through the transfer manager's Uploader
//   - Configurable prefix for multi-tenant isolation
package s3
