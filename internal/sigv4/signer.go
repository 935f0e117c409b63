// Package sigv4 computes AWS Signature Version 4 for a single-shot,
// unsigned-payload S3 PUT. It is built from HMAC-SHA256 primitives only.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	Algorithm       = "AWS4-HMAC-SHA256"
	ServiceS3       = "s3"
	UnsignedPayload = "UNSIGNED-PAYLOAD"
	SignedHeaders   = "host;x-amz-content-sha256;x-amz-date"
	terminator      = "aws4_request"

	dateLayout = "20060102T150405Z"
)

// SigningContext is every input the signature depends on. The derived
// signing key is never part of it.
type SigningContext struct {
	AccessKey  string
	SecretKey  string
	Region     string
	Service    string
	DateString string // YYYYMMDDTHHMMSSZ
	DateStamp  string // YYYYMMDD
	Bucket     string
	ObjectKey  string
}

// NewContext fills the date fields from t (converted to UTC) and defaults
// the service to s3.
func NewContext(accessKey, secretKey, region, bucket, objectKey string, t time.Time) SigningContext {
	dateString, dateStamp := FormatDate(t)
	return SigningContext{
		AccessKey:  accessKey,
		SecretKey:  secretKey,
		Region:     region,
		Service:    ServiceS3,
		DateString: dateString,
		DateStamp:  dateStamp,
		Bucket:     bucket,
		ObjectKey:  objectKey,
	}
}

// FormatDate returns the x-amz-date value and its first 8 characters.
func FormatDate(t time.Time) (dateString, dateStamp string) {
	dateString = t.UTC().Format(dateLayout)
	return dateString, dateString[:8]
}

// Host is the virtual-hosted-style endpoint for the bucket.
func (c SigningContext) Host() string {
	return fmt.Sprintf("%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
}

// CredentialScope is "{dateStamp}/{region}/{service}/aws4_request".
func (c SigningContext) CredentialScope() string {
	return fmt.Sprintf("%s/%s/%s/%s", c.DateStamp, c.Region, c.service(), terminator)
}

func (c SigningContext) service() string {
	if c.Service == "" {
		return ServiceS3
	}
	return c.Service
}

// CanonicalRequest renders the PUT request in canonical form. The object key
// is used verbatim, so callers must only pass keys made of unreserved characters.
func CanonicalRequest(c SigningContext) string {
	return "PUT\n" +
		"/" + c.ObjectKey + "\n" +
		"\n" +
		"host:" + c.Host() + "\n" +
		"x-amz-content-sha256:" + UnsignedPayload + "\n" +
		"x-amz-date:" + c.DateString + "\n" +
		"\n" +
		SignedHeaders + "\n" +
		UnsignedPayload
}

// StringToSign binds the hashed canonical request to the date and scope.
func StringToSign(dateString, credentialScope, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	return Algorithm + "\n" + dateString + "\n" + credentialScope + "\n" + hex.EncodeToString(sum[:])
}

// DeriveSigningKey runs the four-stage key ladder. Each stage keys the next;
// the order is fixed.
func DeriveSigningKey(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, terminator)
}

// Signature is hex(HMAC(signingKey, stringToSign)).
func Signature(secret, dateStamp, region, service, stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(DeriveSigningKey(secret, dateStamp, region, service), stringToSign))
}

// AuthorizationHeader produces the complete Authorization header value.
func AuthorizationHeader(c SigningContext) string {
	scope := c.CredentialScope()
	sts := StringToSign(c.DateString, scope, CanonicalRequest(c))
	sig := Signature(c.SecretKey, c.DateStamp, c.Region, c.service(), sts)
	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm, c.AccessKey, scope, SignedHeaders, sig)
}

func hmacSHA256(key []byte, msg string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msg))
	return h.Sum(nil)
}
