// Package postgen provides an embeddable LinkedIn post generator with a
// per-client daily free quota.
//
// The client wires the same quota ledger, gate and generation pipeline the
// HTTP server uses, without the HTTP layer:
//
//	client, _ := postgen.New(
//	    postgen.WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	    postgen.WithBypassPassword("pro2025"),
//	)
//	res, err := client.Generate(ctx, postgen.GenerateRequest{
//	    ClientID: "203.0.113.7",
//	    Idea:     "I launched a SaaS",
//	    Tone:     postgen.ToneWitty,
//	})
//	if errors.Is(err, postgen.ErrQuotaExceeded) {
//	    // ask for the Pro password
//	}
//
// A custom text provider can replace the OpenAI-compatible one:
//
//	client, _ := postgen.New(postgen.WithGenerator(myGenerator))
package postgen
