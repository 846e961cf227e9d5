// Package toc recovers the table of contents of an archive without
// downloading it.
//
// For a remote archive, a [Resolver] issues one metadata request, classifies
// the declared content type, and then fetches only the trailing bytes of the
// resource in bounded HTTP range requests. Archive formats that keep their
// index at the end of the stream (zip, eStargz) can be listed from that tail
// window alone. Local files are listed with [ResolveFile].
//
// # Quick Start
//
//	r, err := toc.NewResolver(toc.WithChunkSize(32 << 10))
//	if err != nil {
//	    return err
//	}
//	idx, err := r.Resolve(ctx, "https://example.com/release.zip")
//	if err != nil {
//	    return err
//	}
//	for _, name := range idx.Entries {
//	    fmt.Println(name)
//	}
//
// # Window Sizing
//
// Only one tail window of [DefaultTailSize] bytes is fetched per resolution,
// split into requests of at most [DefaultChunkSize] bytes. When an index is
// larger than the window, resolution fails with [ErrWindowInsufficient] and the
// caller may retry with a larger [WithTailSize].
//
// # Subpackages
//
// Package ranges sequences byte intervals, package http performs the probe
// and range requests, package format reads archive indexes, and package
// registry locates archive layers in OCI registries.
package toc
