package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// certValidity 自签名证书有效期
const certValidity = 180 * 24 * time.Hour

// TLSConfig 生成双向认证的 TLS 1.3 配置
//
// 证书由节点私钥自签名。标准 CA 校验被关闭，
// 由 VerifyPeerCertificate 从证书公钥派生并校验对端身份。
func (i *Identity) TLSConfig(alpn ...string) (*tls.Config, error) {
	cert, err := i.certificate()
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates:          []tls.Certificate{cert},
		NextProtos:            alpn,
		InsecureSkipVerify:    true,
		ClientAuth:            tls.RequireAnyClientCert,
		VerifyPeerCertificate: verifyPeerCertificate,
		MinVersion:            tls.VersionTLS13,
	}, nil
}

func (i *Identity) certificate() (tls.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certificate serial: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: i.peerID.String()},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, i.PublicKey(), i.priv)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("create certificate: %w", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: i.priv}, nil
}

// verifyPeerCertificate 对端必须出示有效期内的 Ed25519 自签名证书
func verifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return ErrNoCertificate
	}
	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("parse peer certificate: %w", err)
	}
	if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
		return fmt.Errorf("peer certificate signature: %w", err)
	}

	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return fmt.Errorf("peer certificate outside validity window [%s, %s]", cert.NotBefore, cert.NotAfter)
	}
	_, err = peerFromCertificate(cert)
	return err
}

func peerFromCertificate(cert *x509.Certificate) (types.PeerID, error) {
	pub, ok := cert.PublicKey.(ed25519.PublicKey)
	if !ok {
		return types.EmptyPeerID, fmt.Errorf("%w: %T", ErrUnsupportedKey, cert.PublicKey)
	}
	return types.PeerIDFromPublicKey(pub), nil
}

// PeerFromConnState 从握手完成的 TLS 连接状态中提取对端 ID
func PeerFromConnState(state tls.ConnectionState) (types.PeerID, error) {
	if len(state.PeerCertificates) == 0 {
		return types.EmptyPeerID, ErrNoCertificate
	}
	return peerFromCertificate(state.PeerCertificates[0])
}

// CheckPeer expect 为空或与 actual 一致时返回 nil
func CheckPeer(expect, actual types.PeerID) error {
	if expect.IsEmpty() || expect == actual {
		return nil
	}
	return fmt.Errorf("%w: expected %s, got %s", ErrPeerIDMismatch, expect.ShortString(), actual.ShortString())
}
