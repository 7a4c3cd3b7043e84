// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// LinkValidatorService はダウンロードリンク検証機能のインターフェースを定義する。
// 管理者がダウンロード項目を作成・更新する際に使用される。
// リンクは外部公開URLのみを許可し、内部ネットワークを指すURLを拒否する。
type LinkValidatorService interface {
	// ValidateURL はURLの安全性を検証する。
	// スキーム、ホスト、IPアドレスの検証を行い、
	// 危険なURLの場合はエラーを返す。
	ValidateURL(rawURL string) error
}

// allowedSchemes はダウンロードリンクで許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks はブロックされるネットワーク範囲。
// パッケージ初期化時に1回だけパースし、ValidateURLでの検証に使用する。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// プライベートIPアドレス (RFC 1918)
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// ループバック (RFC 1122)
		"127.0.0.0/8",
		// リンクローカル (RFC 3927) - クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		// カレントネットワーク
		"0.0.0.0/8",
		// IPv6ループバック
		"::1/128",
		// IPv6リンクローカル
		"fe80::/10",
		// IPv6ユニークローカル
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s", cidr))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// linkValidator はLinkValidatorServiceの実装。
type linkValidator struct{}

// NewLinkValidator はLinkValidatorServiceの新しいインスタンスを生成する。
func NewLinkValidator() *linkValidator {
	return &linkValidator{}
}

// ValidateURL はURLの安全性を検証する。
// 検証内容:
//   - スキームがhttp/httpsであること
//   - ホストが空でないこと
//   - ホストがIPアドレスの場合、ブロック対象ネットワークに属さないこと
//   - localhostでないこと
//
// ホスト名のDNS解決は行わない（この層では保存時の静的検証のみ）。
func (v *linkValidator) ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	schemeOK := false
	for _, s := range allowedSchemes {
		if u.Scheme == s {
			schemeOK = true
			break
		}
	}
	if !schemeOK {
		return fmt.Errorf("scheme %q is not allowed", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("URL has no host")
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("host %q is not allowed", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, network := range blockedNetworks {
			if network.Contains(ip) {
				return fmt.Errorf("IP address %s is in a blocked network range", ip)
			}
		}
	}

	return nil
}

// compile-time interface check
var _ LinkValidatorService = (*linkValidator)(nil)
