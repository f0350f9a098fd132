// Package gifrank retrieves GIFs from a keyword search provider and ranks them
// by embedding similarity to a text query.
//
// A Client wires the search gateway, the embedding chain and the ranking pipeline:
//
//	client, err := gifrank.New(
//		gifrank.WithGiphy(os.Getenv("GIPHY_API_KEY")),
//		gifrank.WithEmbedding("http://localhost:8000/v1", "", "clip-vit-base-patch32", 512),
//	)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	res, err := client.Rank("so happy for you").Terms("congrats", "celebrate").TopK(6).Do(ctx)
//
// Per-candidate failures never fail a call. They are counted in Result.Failed,
// and when nothing can be embedded the result degrades to OutcomeUnranked.
package gifrank
