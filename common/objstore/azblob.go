package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// Well-known storage account and key for Azurite
const (
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// AzureBlobStore uses the configured bucket as the blob container.
type AzureBlobStore struct {
	client    *azblob.Client
	container string
}

var _ Store = &AzureBlobStore{}

// NewAzureBlob authenticates with a shared key. When an endpoint is configured it is treated as an
// Azurite emulator and the well-known development account is used for any missing credentials.
func NewAzureBlob(cfg Config) (*AzureBlobStore, error) {
	accountName, accountKey := cfg.AccountName, cfg.AccountKey
	var endpointURL string
	if cfg.Endpoint != "" {
		if accountName == "" {
			accountName = azuriteAccountName
		}
		if accountKey == "" {
			accountKey = azuriteAccountKey
		}
		endpointURL = fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), accountName)
	} else {
		endpointURL = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}

	credentials, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared credential: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpointURL, credentials, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}
	return &AzureBlobStore{
		client:    client,
		container: cfg.Bucket,
	}, nil
}

func (s *AzureBlobStore) List(ctx context.Context, prefix string, delimiter string) ([]string, error) {
	pager := s.client.ServiceClient().NewContainerClient(s.container).NewListBlobsHierarchyPager(delimiter,
		&container.ListBlobsHierarchyOptions{Prefix: &prefix})

	prefixes := []string{}
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blobs in container %s under %q failed: %w", s.container, prefix, err)
		}
		for _, p := range page.Segment.BlobPrefixes {
			if p.Name != nil {
				prefixes = append(prefixes, *p.Name)
			}
		}
	}
	return prefixes, nil
}

func (s *AzureBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if isAzureNotFound(err) {
			return nil, notFound(key, err)
		}
		return nil, fmt.Errorf("get blob %s from container %s failed: %w", key, s.container, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s from container %s failed: %w", key, s.container, err)
	}
	return body, nil
}

func (s *AzureBlobStore) Put(ctx context.Context, key string, body []byte) error {
	contentType := contentTypeForKey(key)
	_, err := s.client.UploadBuffer(ctx, s.container, key, body, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("put blob %s to container %s failed: %w", key, s.container, err)
	}
	return nil
}

func isAzureNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
