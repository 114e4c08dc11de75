package syncarchive

import (
	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
	"github.com/urfave/cli/v2"
)

var ArchiveOpts struct {
	Bucket  string
	OutFile string
}

var BucketFlag = synccli.StringFlag("archive-bucket", "The bucket to archive uploaded batches to", &ArchiveOpts.Bucket)
var OutFileFlag = synccli.StringFlag("out-file", "The file to write the batch to, when running in dry mode", &ArchiveOpts.OutFile)

var ArchiveFlags = []cli.Flag{
	BucketFlag,
	OutFileFlag,
}
