package render_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nftconnect/internal/models"
	"nftconnect/internal/render"
)

func TestResultVerifiedWithoutNFTs(t *testing.T) {
	t.Parallel()

	d := render.Result(models.Verified([]models.NFT{}, nil))
	require.Equal(t, []string{render.TextVerifiedNoNFTs}, d.Texts())
	require.NotContains(t, d.Texts(), render.TextRewardsProcessing)
	require.NotContains(t, d.Texts(), render.TextNoRewards)
}

func TestResultVerifiedWithNFTsAndRewards(t *testing.T) {
	t.Parallel()

	result := models.Verified(
		[]models.NFT{{Address: "EQabc123...", Metadata: &models.NFTMetadata{Name: "Cat"}}},
		[]models.Reward{models.Reward(`{}`)},
	)
	d := render.Result(result)

	require.Equal(t, []string{render.TextVerifiedHeader, "Cat (EQabc1...)", render.TextRewardsProcessing}, d.Texts())
	require.Equal(t, models.ElementItem, d.Elements[1].Kind)
}

func TestResultNFTDefaultsAndImage(t *testing.T) {
	t.Parallel()

	result := models.Verified([]models.NFT{
		{Address: "EQxyz"},
		{Address: "UQ0123456789", Metadata: &models.NFTMetadata{Image: "https://img.example/1.png"}},
	}, nil)
	d := render.Result(result)

	require.Len(t, d.Elements, 5)
	require.Equal(t, "Unnamed NFT (EQxyz...)", d.Elements[1].Text)
	require.Equal(t, "Unnamed NFT (UQ0123...)", d.Elements[2].Text)
	require.Equal(t, models.ElementImage, d.Elements[3].Kind)
	require.Equal(t, "https://img.example/1.png", d.Elements[3].Src)
	require.Equal(t, "Unnamed NFT", d.Elements[3].Alt)
	require.Equal(t, render.TextNoRewards, d.Elements[4].Text)
}

func TestResultFailedAndPending(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"Verification Failed: expired"}, render.Result(models.NotVerified("expired")).Texts())
	require.Equal(t, []string{"Verification Failed: Unknown reason"}, render.Result(models.NotVerified("")).Texts())
	require.Equal(t, []string{render.TextPending}, render.Result(models.VerificationResult{}).Texts())
}

func TestNotices(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"Verification Failed: Unknown error"}, render.VerificationFailed("").Texts())
	require.Equal(t, []string{"Initialization Error: Could not set up wallet connection."}, render.InitializationError("").Texts())
	require.True(t, render.Clear().Empty())
	require.Equal(t, models.ToneWarning, render.Notice(models.ToneWarning, "x").Elements[0].Tone)
}
