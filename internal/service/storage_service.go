package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/internal/util"
	"quiz_nft_backend/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 内容寻址存储接口：上传返回 CID，URL 由 CID 解析
//
// 上传失败一律返回 ErrStorageUpload（携带提供方错误文本），组件内部不重试，
// 重试由铸造编排器负责。Unpin 属于清理路径，尽力而为，只记日志不上抛。
type StorageProvider interface {
	UploadImage(ctx context.Context, data []byte, filename string) (string, error)
	UploadJSON(ctx context.Context, document interface{}, name string) (string, error)
	Unpin(ctx context.Context, cid string) error
}

// PinataProvider Pinata pinning API 实现
type PinataProvider struct {
	Config *config.StorageConfig
	Client *http.Client
}

func NewPinataProvider(cfg *config.StorageConfig) *PinataProvider {
	return &PinataProvider{
		Config: cfg,
		Client: &http.Client{Timeout: cfg.UploadTimeout},
	}
}

func (p *PinataProvider) pinFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.Config.PinataAPIURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("pinata_api_key", p.Config.PinataAPIKey)
	req.Header.Set("pinata_secret_api_key", p.Config.PinataSecret)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrStorageUpload, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		logger.Log.Error("pinata upload failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return "", fmt.Errorf("%w: %s", util.ErrStorageUpload, string(body))
	}

	var result struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrStorageUpload, err)
	}
	if result.IpfsHash == "" {
		return "", fmt.Errorf("%w: empty IpfsHash in response", util.ErrStorageUpload)
	}

	return result.IpfsHash, nil
}

func (p *PinataProvider) UploadImage(ctx context.Context, data []byte, filename string) (string, error) {
	return p.pinFile(ctx, data, filename, "image/png")
}

func (p *PinataProvider) UploadJSON(ctx context.Context, document interface{}, name string) (string, error) {
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return "", err
	}
	return p.pinFile(ctx, data, name+".json", "application/json")
}

func (p *PinataProvider) Unpin(ctx context.Context, cid string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		p.Config.PinataAPIURL+"/pinning/unpin/"+cid, nil)
	if err != nil {
		return err
	}
	req.Header.Set("pinata_api_key", p.Config.PinataAPIKey)
	req.Header.Set("pinata_secret_api_key", p.Config.PinataSecret)

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unpin returned status %d", resp.StatusCode)
	}
	return nil
}

// MinioProvider S3 兼容的 IPFS pinning 网关实现（Filebase 一类），
// 对象写入后从元数据里取回 CID
type MinioProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioProvider(cfg *config.StorageConfig) (*MinioProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: true,
	})
	if err != nil {
		return nil, err
	}
	return &MinioProvider{Config: cfg, Client: client}, nil
}

func (p *MinioProvider) put(ctx context.Context, data []byte, name, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, name,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrStorageUpload, err)
	}

	stat, err := p.Client.StatObject(ctx, p.Config.MinioBucket, name, minio.StatObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrStorageUpload, err)
	}

	cid := stat.UserMetadata["Cid"]
	if cid == "" {
		cid = stat.Metadata.Get("x-amz-meta-cid")
	}
	if cid == "" {
		return "", fmt.Errorf("%w: gateway did not return a cid for %s", util.ErrStorageUpload, name)
	}
	return cid, nil
}

func (p *MinioProvider) UploadImage(ctx context.Context, data []byte, filename string) (string, error) {
	return p.put(ctx, data, filename, "image/png")
}

func (p *MinioProvider) UploadJSON(ctx context.Context, document interface{}, name string) (string, error) {
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return "", err
	}
	return p.put(ctx, data, name+".json", "application/json")
}

func (p *MinioProvider) Unpin(ctx context.Context, cid string) error {
	// 网关按对象名删除，这里按 CID 前缀查找后移除
	for obj := range p.Client.ListObjects(ctx, p.Config.MinioBucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return obj.Err
		}
		info, err := p.Client.StatObject(ctx, p.Config.MinioBucket, obj.Key, minio.StatObjectOptions{})
		if err != nil {
			continue
		}
		if info.UserMetadata["Cid"] == cid || info.Metadata.Get("x-amz-meta-cid") == cid {
			return p.Client.RemoveObject(ctx, p.Config.MinioBucket, obj.Key, minio.RemoveObjectOptions{})
		}
	}
	return nil
}

// StorageService 制品管线的存储半边：图片与元数据上传、URL 解析、尽力而为的清理
type StorageService struct {
	Provider   StorageProvider
	GatewayURL string
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioProvider(&cfg.Storage)
		if err == nil {
			provider = p
		} else {
			logger.Log.Error("minio provider init failed, falling back to pinata", zap.Error(err))
		}
	}

	if provider == nil {
		provider = NewPinataProvider(&cfg.Storage)
	}

	gateway := strings.TrimRight(cfg.Storage.GatewayURL, "/")
	if gateway == "" {
		gateway = "https://gateway.pinata.cloud/ipfs"
	}

	return &StorageService{Provider: provider, GatewayURL: gateway}
}

func (s *StorageService) UploadImage(ctx context.Context, data []byte, filename string) (string, error) {
	return s.Provider.UploadImage(ctx, data, filename)
}

func (s *StorageService) UploadJSON(ctx context.Context, document interface{}, name string) (string, error) {
	return s.Provider.UploadJSON(ctx, document, name)
}

// ResolveURL 由 CID 得到网关 URL
func (s *StorageService) ResolveURL(cid string) string {
	return s.GatewayURL + "/" + cid
}

// Unpin 清理不在关键路径上，失败只记日志
func (s *StorageService) Unpin(ctx context.Context, cid string) {
	if cid == "" {
		return
	}
	if err := s.Provider.Unpin(ctx, cid); err != nil {
		logger.Log.Warn("unpin failed", zap.String("cid", cid), zap.Error(err))
	}
}
