package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

func (o *Opener) openAzure(ctx context.Context, location string) (io.ReadCloser, error) {
	container, key, account, err := parseAzurePath(location)
	if err != nil {
		return nil, err
	}
	if account == "" {
		account = o.cfg.AzureAccountName
	}
	if account == "" || o.cfg.AzureAccountKey == "" {
		return nil, fmt.Errorf("Azure account key authentication required (set AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY)")
	}

	cred, err := azblob.NewSharedKeyCredential(account, o.cfg.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", account)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	resp, err := client.DownloadStream(ctx, container, key, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", location, err)
	}
	return resp.Body, nil
}

// parseAzurePath extracts container, key and (when the URI carries it) the
// storage account from an Azure storage URI.
//
// Supported formats:
//
//	abfss://container@account.dfs.core.windows.net/path/to/file
//	az://container/path/to/file
//	https://account.blob.core.windows.net/container/path/to/file
func parseAzurePath(path string) (container, key, account string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", "", fmt.Errorf("parse Azure path %q: %w", path, err)
	}

	switch u.Scheme {
	case "abfss":
		// url.Parse treats "container" as userinfo and the account FQDN as host.
		if u.User == nil {
			return "", "", "", fmt.Errorf("abfss path %q missing container@account component", path)
		}
		container = u.User.Username()
		account, _, _ = strings.Cut(u.Hostname(), ".")
		key = strings.TrimPrefix(u.Path, "/")

	case "az":
		container = u.Host
		key = strings.TrimPrefix(u.Path, "/")

	case "https":
		host := u.Hostname()
		if !strings.HasSuffix(host, ".blob.core.windows.net") {
			return "", "", "", fmt.Errorf("unrecognized Azure HTTPS host %q in path %q", host, path)
		}
		account = strings.TrimSuffix(host, ".blob.core.windows.net")
		container, key, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")

	default:
		return "", "", "", fmt.Errorf("unrecognized Azure path scheme %q in %q", u.Scheme, path)
	}

	if container == "" {
		return "", "", "", fmt.Errorf("empty container in Azure path %q", path)
	}
	if key == "" {
		return "", "", "", fmt.Errorf("empty key in Azure path %q", path)
	}
	return container, key, account, nil
}
