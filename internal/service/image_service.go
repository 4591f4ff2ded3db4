package service

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"quiz_nft_backend/pkg/logger"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderSize = 512
	maxUploadSize   = 1024
)

// 结果类别对应的底色，未知类别用默认蓝
var categoryColors = map[string]color.RGBA{
	"gryffindor": {0x74, 0x00, 0x01, 0xFF},
	"slytherin":  {0x1A, 0x47, 0x2A, 0xFF},
	"ravenclaw":  {0x0E, 0x1A, 0x40, 0xFF},
	"hufflepuff": {0xFF, 0xD8, 0x00, 0xFF},
}

var defaultColor = color.RGBA{0x4A, 0x90, 0xE2, 0xFF}

// ImageService 生成结果占位图并在上传前做规格化处理
type ImageService struct{}

func NewImageService() *ImageService {
	return &ImageService{}
}

// GeneratePlaceholder 为结果类别生成 512x512 占位图：纯色底 + 居中类别文本
// 同样的类别永远生成同样的图
func (s *ImageService) GeneratePlaceholder(resultType string) ([]byte, error) {
	bg, ok := categoryColors[strings.ToLower(resultType)]
	if !ok {
		bg = defaultColor
	}

	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	label := strings.ToUpper(resultType)
	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.P(
			(placeholderSize-width)/2,
			placeholderSize/2+face.Metrics().Ascent.Ceil()/2,
		),
	}
	drawer.DrawString(label)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Optimize 上传前规格化：透明通道压到白底、超出 1024x1024 时按比例缩小。
// 处理失败退回原始字节，不阻断铸造
func (s *ImageService) Optimize(data []byte) []byte {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Log.Warn("image decode failed, using original", zap.Error(err))
		return data
	}

	bounds := src.Bounds()
	flattened := image.NewRGBA(bounds)
	draw.Draw(flattened, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flattened, bounds, src, bounds.Min, draw.Over)

	w, h := bounds.Dx(), bounds.Dy()
	out := image.Image(flattened)
	if w > maxUploadSize || h > maxUploadSize {
		scale := float64(maxUploadSize) / float64(w)
		if h > w {
			scale = float64(maxUploadSize) / float64(h)
		}
		dw, dh := int(float64(w)*scale), int(float64(h)*scale)
		scaled := image.NewRGBA(image.Rect(0, 0, dw, dh))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), flattened, bounds, xdraw.Over, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		logger.Log.Warn("image encode failed, using original", zap.Error(err))
		return data
	}

	logger.Log.Debug("image optimized",
		zap.Int("originalBytes", len(data)),
		zap.Int("optimizedBytes", buf.Len()))
	return buf.Bytes()
}
