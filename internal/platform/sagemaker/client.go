package sagemaker

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sm "github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
)

const serviceName = "sagemaker"

type TrainingJobStatus struct {
	JobName           string     `json:"job_name"`
	Status            string     `json:"status"`
	SecondaryStatus   string     `json:"secondary_status"`
	CreationTime      *time.Time `json:"creation_time"`
	TrainingStartTime *time.Time `json:"training_start_time"`
	TrainingEndTime   *time.Time `json:"training_end_time"`
	FailureReason     *string    `json:"failure_reason"`
	BillableSeconds   *int32     `json:"billable_seconds"`
	InstanceType      string     `json:"instance_type"`
	InstanceCount     *int32     `json:"instance_count"`
	OutputPath        *string    `json:"output_path"`
}

type TrainingJobSummary struct {
	JobName          string     `json:"job_name"`
	Status           string     `json:"status"`
	CreationTime     *time.Time `json:"creation_time"`
	TrainingEndTime  *time.Time `json:"training_end_time"`
	LastModifiedTime *time.Time `json:"last_modified_time"`
}

type trainingAPI interface {
	DescribeTrainingJob(ctx context.Context, in *sm.DescribeTrainingJobInput, optFns ...func(*sm.Options)) (*sm.DescribeTrainingJobOutput, error)
	ListTrainingJobs(ctx context.Context, in *sm.ListTrainingJobsInput, optFns ...func(*sm.Options)) (*sm.ListTrainingJobsOutput, error)
}

type Client struct {
	api trainingAPI
	log *logger.Logger
}

func New(awsCfg aws.Config, log *logger.Logger) *Client {
	return newClient(sm.NewFromConfig(awsCfg), log)
}

func newClient(api trainingAPI, log *logger.Logger) *Client {
	return &Client{api: api, log: log.With("client", "SageMaker")}
}

func (c *Client) DescribeTrainingJob(ctx context.Context, jobName string) (*TrainingJobStatus, error) {
	out, err := c.api.DescribeTrainingJob(ctx, &sm.DescribeTrainingJobInput{TrainingJobName: aws.String(jobName)})
	if err != nil {
		return nil, wrapErr(err)
	}
	st := &TrainingJobStatus{
		JobName:           aws.ToString(out.TrainingJobName),
		Status:            string(out.TrainingJobStatus),
		SecondaryStatus:   string(out.SecondaryStatus),
		CreationTime:      out.CreationTime,
		TrainingStartTime: out.TrainingStartTime,
		TrainingEndTime:   out.TrainingEndTime,
		FailureReason:     out.FailureReason,
		BillableSeconds:   out.BillableTimeInSeconds,
	}
	if rc := out.ResourceConfig; rc != nil {
		st.InstanceType = string(rc.InstanceType)
		st.InstanceCount = rc.InstanceCount
	}
	if oc := out.OutputDataConfig; oc != nil {
		st.OutputPath = oc.S3OutputPath
	}
	return st, nil
}

// ListTrainingJobs returns the newest training jobs whose name contains nameContains.
func (c *Client) ListTrainingJobs(ctx context.Context, nameContains string, maxResults int) ([]TrainingJobSummary, error) {
	if maxResults <= 0 || maxResults > 100 {
		maxResults = 50
	}
	in := &sm.ListTrainingJobsInput{
		MaxResults: aws.Int32(int32(maxResults)),
		SortBy:     smtypes.SortByCreationTime,
		SortOrder:  smtypes.SortOrderDescending,
	}
	if nameContains != "" {
		in.NameContains = aws.String(nameContains)
	}
	out, err := c.api.ListTrainingJobs(ctx, in)
	if err != nil {
		return nil, wrapErr(err)
	}
	jobs := make([]TrainingJobSummary, 0, len(out.TrainingJobSummaries))
	for _, s := range out.TrainingJobSummaries {
		jobs = append(jobs, TrainingJobSummary{
			JobName:          aws.ToString(s.TrainingJobName),
			Status:           string(s.TrainingJobStatus),
			CreationTime:     s.CreationTime,
			TrainingEndTime:  s.TrainingEndTime,
			LastModifiedTime: s.LastModifiedTime,
		})
	}
	return jobs, nil
}

func wrapErr(err error) error {
	status := 0
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		status = re.HTTPStatusCode()
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		err = errors.New(ae.ErrorCode() + ": " + ae.ErrorMessage())
	}
	return apierr.Upstream(serviceName, status, err)
}
