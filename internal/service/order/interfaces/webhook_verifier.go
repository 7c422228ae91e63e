// internal/service/order/interfaces/webhook_verifier.go
package interfaces

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"b8shield/internal/service/order/domain"
)

// ErrInvalidSignature 签名缺失或不匹配。这是安全边界：
// 必须拒绝请求本身，而不是只记一条日志。
var ErrInvalidSignature = errors.New("invalid webhook signature")

// webhookEnvelope 是支付方定义的回调信封。
type webhookEnvelope struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Data struct {
		Object paymentObject `json:"object"`
	} `json:"data"`
}

type paymentObject struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// VerifySignature 用共享密钥对原始请求体做 HMAC-SHA256 校验。
// 比较必须是常数时间的，容忍 "sha256=" 前缀。
func VerifySignature(secret string, body []byte, signatureHeader string) bool {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" || secret == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(sig), "sha256=") {
		sig = sig[len("sha256="):]
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// SignBody 用于测试和对端调试：生成请求体的签名头。
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifyAndDecode 先验签、后解码：签名不对时不解析任何内容。
// 返回事件类型字符串和归一化的 PaymentEvent。
func VerifyAndDecode(secret string, body []byte, signatureHeader string) (string, *domain.PaymentEvent, error) {
	if !VerifySignature(secret, body, signatureHeader) {
		return "", nil, ErrInvalidSignature
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", nil, err
	}

	event := &domain.PaymentEvent{
		EventID:            envelope.ID,
		ProviderPaymentRef: envelope.Data.Object.ID,
		AmountMinorUnits:   envelope.Data.Object.Amount,
		Currency:           envelope.Data.Object.Currency,
		Status:             envelope.Data.Object.Status,
		Metadata:           envelope.Data.Object.Metadata,
	}
	if event.Metadata == nil {
		event.Metadata = map[string]string{}
	}
	return envelope.Type, event, nil
}
