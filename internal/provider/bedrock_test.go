package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/woundlens-ai/internal/assessment"
)

type stubConverse struct {
	inputs []*bedrockruntime.ConverseInput
	out    *bedrockruntime.ConverseOutput
	err    error
}

func (s *stubConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.inputs = append(s.inputs, params)
	return s.out, s.err
}

func converseReply(text string, stop brtypes.StopReason) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
		StopReason: stop,
	}
}

const claudeModel = "anthropic.claude-3-5-sonnet-20240620-v1:0"

func TestNewBedrockClient(t *testing.T) {
	_, err := NewBedrockClient(nil, claudeModel, quietOptions())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewBedrockClient(&stubConverse{}, " ", quietOptions())
	assert.Error(t, err)
}

func TestBedrockClient_Analyze(t *testing.T) {
	stub := &stubConverse{out: converseReply(sampleAnalysis, brtypes.StopReasonEndTurn)}
	c, err := NewBedrockClient(stub, claudeModel, quietOptions())
	require.NoError(t, err)

	text, err := c.Analyze(context.Background(), "Case prompt", testImage())
	require.NoError(t, err)
	assert.Equal(t, sampleAnalysis, text)

	in := stub.inputs[0]
	assert.Equal(t, claudeModel, aws.ToString(in.ModelId))
	assert.Equal(t, int32(2000), aws.ToInt32(in.InferenceConfig.MaxTokens))
	assert.InDelta(t, 0.2, aws.ToFloat32(in.InferenceConfig.Temperature), 1e-6)
	require.Len(t, in.Messages, 1)
	content := in.Messages[0].Content
	require.Len(t, content, 2)
	img, ok := content[1].(*brtypes.ContentBlockMemberImage)
	require.True(t, ok)
	assert.Equal(t, brtypes.ImageFormatJpeg, img.Value.Format)
}

func TestBedrockClient_AnalyzeRejectsUnknownImageType(t *testing.T) {
	stub := &stubConverse{}
	c, err := NewBedrockClient(stub, claudeModel, quietOptions())
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), "p", Image{Data: []byte{1}, MIMEType: "image/tiff"})
	assert.Error(t, err)
	assert.Empty(t, stub.inputs)
}

func TestBedrockClient_StopReasons(t *testing.T) {
	stub := &stubConverse{out: converseReply("half a report", brtypes.StopReasonMaxTokens)}
	c, err := NewBedrockClient(stub, claudeModel, quietOptions())
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), "p", testImage())
	var blocked *BlockedResponseError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, "max_tokens", blocked.Reason)

	stub.out = &bedrockruntime.ConverseOutput{StopReason: brtypes.StopReasonEndTurn}
	_, err = c.Analyze(context.Background(), "p", testImage())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestBedrockClient_ExpandReviseAndHealing(t *testing.T) {
	stub := &stubConverse{out: converseReply(`{"recommendations":[],"ongoing_care":"","patient_education":""}`, brtypes.StopReasonEndTurn)}
	c, err := NewBedrockClient(stub, claudeModel, quietOptions())
	require.NoError(t, err)

	_, err = c.ExpandPlan(context.Background(), sampleAnalysis, assessment.FormattedAssessment{}, "Left Foot")
	require.NoError(t, err)

	stub.out = converseReply(`{"revised_products":[]}`, brtypes.StopReasonEndTurn)
	_, err = c.ReviseProducts(context.Background(), sampleAnalysis, ReasonProductsUnavailable)
	require.NoError(t, err)
	revise := stub.inputs[1].Messages[0].Content[0].(*brtypes.ContentBlockMemberText).Value
	assert.Contains(t, revise, "readily available alternatives")

	stub.out = converseReply(`{"healing_progress_percentage": 90}`, brtypes.StopReasonEndTurn)
	got, err := c.HealingProgress(context.Background(), testDocument(t))
	require.NoError(t, err)
	assert.Equal(t, 90, got.Percentage)

	in := stub.inputs[2]
	assert.Zero(t, aws.ToFloat32(in.InferenceConfig.Temperature))
	doc, ok := in.Messages[0].Content[0].(*brtypes.ContentBlockMemberDocument)
	require.True(t, ok)
	assert.Equal(t, brtypes.DocumentFormatPdf, doc.Value.Format)
	src, ok := doc.Value.Source.(*brtypes.DocumentSourceMemberBytes)
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.4 test"), src.Value)
}
