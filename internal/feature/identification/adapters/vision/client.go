// Package vision はGoogle Cloud Vision APIのラベル検出を使用した植物識別クライアントを提供します。
package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
	"plantid_backend/internal/feature/identification/usecase"
)

const (
	// ProviderName はログと応答に使うプロバイダー名です。
	ProviderName = "vision"
	// DefaultMaxLabels は1回の呼び出しで要求するラベル数です。
	DefaultMaxLabels = 10
)

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// VisionIdentifier はGoogle Cloud Vision APIのLABEL_DETECTIONで画像を分類します。
type VisionIdentifier struct {
	annotate  annotateFunc
	close     func() error
	maxLabels int32
}

// VisionIdentifierがPlantIdentifierを実装していることをコンパイル時に検証します。
var _ usecase.PlantIdentifier = (*VisionIdentifier)(nil)

// NewVisionIdentifier はADCを使用してVisionIdentifierの新しいインスタンスを生成します。
func NewVisionIdentifier(ctx context.Context) (*VisionIdentifier, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionIdentifier{
		annotate: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return client.BatchAnnotateImages(ctx, req)
		},
		close:     client.Close,
		maxLabels: DefaultMaxLabels,
	}, nil
}

// Close はVision APIクライアントを解放します。
func (v *VisionIdentifier) Close() error {
	if v.close == nil {
		return nil
	}
	return v.close()
}

// Name はプロバイダー名を返します。
func (v *VisionIdentifier) Name() string { return ProviderName }

// Identify は画像のラベルを検出し、スコア付きのラベル一覧を返します。
func (v *VisionIdentifier) Identify(ctx context.Context, image []byte, _ string) (entity.ProviderResponse, error) {
	if len(image) == 0 {
		return nil, domain.NewValidationError(domain.ErrNoImage, "vision: image is empty")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: v.maxLabels},
				},
			},
		},
	}

	resp, err := v.annotate(ctx, req)
	if err != nil {
		return nil, &domain.TransportError{Provider: ProviderName, StatusCode: httpStatus(status.Code(err)), Err: err}
	}
	if len(resp.GetResponses()) == 0 {
		return nil, &domain.ParseError{Provider: ProviderName, Err: errors.New("no annotation responses")}
	}

	first := resp.GetResponses()[0]
	if e := first.GetError(); e != nil && e.GetCode() != int32(codes.OK) {
		return nil, &domain.TransportError{
			Provider:   ProviderName,
			StatusCode: httpStatus(codes.Code(e.GetCode())),
			Err:        fmt.Errorf("vision API error: %s", e.GetMessage()),
		}
	}

	labels := make([]entity.Label, 0, len(first.GetLabelAnnotations()))
	for _, l := range first.GetLabelAnnotations() {
		labels = append(labels, entity.Label{Description: l.GetDescription(), Score: l.GetScore()})
	}
	return entity.LabelResponse{Provider: ProviderName, Labels: labels}, nil
}

// httpStatus はgRPCステータスコードを対応するHTTPステータスへ変換します。
func httpStatus(c codes.Code) int {
	switch c {
	case codes.OK:
		return 0
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		// クライアント側の取り消しはHTTP応答を伴わない
		return 0
	case codes.Unknown:
		// 非gRPCエラー（ネットワーク障害など）
		return 0
	}
	return http.StatusInternalServerError
}
