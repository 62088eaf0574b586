package oss

import (
	"strings"

	"github.com/aliyun/alibaba-cloud-sdk-go/services/sts"
)

// Credentials let a client upload straight to the bucket for a limited time.
type Credentials struct {
	AccessKeyId     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	SecurityToken   string `json:"securityToken"`
	Expiration      string `json:"expiration"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
}

// STSIssuer assumes the configured RAM role to mint upload credentials.
type STSIssuer struct {
	cfg Config
}

func NewSTSIssuer(cfg Config) *STSIssuer {
	return &STSIssuer{cfg: cfg}
}

// Issue returns credentials valid for one hour.
func (i *STSIssuer) Issue() (*Credentials, error) {
	client, err := sts.NewClientWithAccessKey(stsRegion(i.cfg.Region), i.cfg.AccessKeyID, i.cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	request := sts.CreateAssumeRoleRequest()
	request.Scheme = "https"
	request.RoleArn = i.cfg.RoleArn
	request.RoleSessionName = "ugcads-upload"
	request.DurationSeconds = "3600"

	response, err := client.AssumeRole(request)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		AccessKeyId:     response.Credentials.AccessKeyId,
		AccessKeySecret: response.Credentials.AccessKeySecret,
		SecurityToken:   response.Credentials.SecurityToken,
		Expiration:      response.Credentials.Expiration,
		Region:          i.cfg.Region,
		Bucket:          i.cfg.Bucket,
	}, nil
}

// stsRegion strips the "oss-" prefix: STS wants "cn-beijing", not "oss-cn-beijing".
func stsRegion(region string) string {
	if after, ok := strings.CutPrefix(region, "oss-"); ok {
		return after
	}
	return region
}
