package filter

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/internal/graph"
)

// channelCounts is the fixed per-layer output-channel width of the
// built-in network, independent of input channel count.
var channelCounts = map[string]int{
	"enc_conv0": 32, "enc_conv1": 32, "enc_conv2": 48, "enc_conv3": 64, "enc_conv4": 80,
	"enc_conv5a": 96, "enc_conv5b": 96,
	"dec_conv4a": 112, "dec_conv4b": 112,
	"dec_conv3a": 96, "dec_conv3b": 96,
	"dec_conv2a": 64, "dec_conv2b": 64,
	"dec_conv1a": 64, "dec_conv1b": 32,
	"dec_conv0": 3,
}

// BuildNetwork builds the fixed U-Net topology on g, rooted at inputOp
// (the graph's AddInputProcess result), and returns the final op
// (dec_conv0, linear activation) to be passed to AddOutputProcess.
//
//	input -> enc_conv0 -> enc_conv1+pool -> enc_conv2+pool -> enc_conv3+pool -> enc_conv4+pool
//	      -> enc_conv5a -> enc_conv5b+upsample -> concat(pool3) -> dec_conv4a
//	      -> dec_conv4b+upsample -> concat(pool2) -> dec_conv3a
//	      -> dec_conv3b+upsample -> concat(pool1) -> dec_conv2a
//	      -> dec_conv2b+upsample -> concat(input) -> dec_conv1a -> dec_conv1b
//	      -> dec_conv0 (linear activation) -> output
func BuildNetwork(g *graph.Graph, inputOp graph.Op) (graph.Op, error) {
	relu := engine.ActivationReLU

	enc0, err := g.AddConv("enc_conv0", inputOp, channelCounts["enc_conv0"], relu, engine.PostNone)
	if err != nil {
		return nil, err
	}
	pool1, err := g.AddConv("enc_conv1", enc0, channelCounts["enc_conv1"], relu, engine.PostPool)
	if err != nil {
		return nil, err
	}
	pool2, err := g.AddConv("enc_conv2", pool1, channelCounts["enc_conv2"], relu, engine.PostPool)
	if err != nil {
		return nil, err
	}
	pool3, err := g.AddConv("enc_conv3", pool2, channelCounts["enc_conv3"], relu, engine.PostPool)
	if err != nil {
		return nil, err
	}
	pool4, err := g.AddConv("enc_conv4", pool3, channelCounts["enc_conv4"], relu, engine.PostPool)
	if err != nil {
		return nil, err
	}
	enc5a, err := g.AddConv("enc_conv5a", pool4, channelCounts["enc_conv5a"], relu, engine.PostNone)
	if err != nil {
		return nil, err
	}
	up5b, err := g.AddConv("enc_conv5b", enc5a, channelCounts["enc_conv5b"], relu, engine.PostUpsample)
	if err != nil {
		return nil, err
	}

	concat4, err := g.AddConcatConv("dec_conv4a", up5b, pool3, channelCounts["dec_conv4a"], relu)
	if err != nil {
		return nil, err
	}
	up4b, err := g.AddConv("dec_conv4b", concat4, channelCounts["dec_conv4b"], relu, engine.PostUpsample)
	if err != nil {
		return nil, err
	}

	concat3, err := g.AddConcatConv("dec_conv3a", up4b, pool2, channelCounts["dec_conv3a"], relu)
	if err != nil {
		return nil, err
	}
	up3b, err := g.AddConv("dec_conv3b", concat3, channelCounts["dec_conv3b"], relu, engine.PostUpsample)
	if err != nil {
		return nil, err
	}

	concat2, err := g.AddConcatConv("dec_conv2a", up3b, pool1, channelCounts["dec_conv2a"], relu)
	if err != nil {
		return nil, err
	}
	up2b, err := g.AddConv("dec_conv2b", concat2, channelCounts["dec_conv2b"], relu, engine.PostUpsample)
	if err != nil {
		return nil, err
	}

	concat1, err := g.AddConcatConv("dec_conv1a", up2b, inputOp, channelCounts["dec_conv1a"], relu)
	if err != nil {
		return nil, err
	}
	dec1b, err := g.AddConv("dec_conv1b", concat1, channelCounts["dec_conv1b"], relu, engine.PostNone)
	if err != nil {
		return nil, err
	}
	dec0, err := g.AddConv("dec_conv0", dec1b, channelCounts["dec_conv0"], engine.ActivationNone, engine.PostNone)
	if err != nil {
		return nil, err
	}
	return dec0, nil
}
