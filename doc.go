// Package booklet turns WordPress page content into printable PDF booklets.
//
// # Quick Start
//
// Create a builder over a directory of fetched content files, build, and
// close when done:
//
//	b, err := booklet.NewBuilder(booklet.WithWorkdir("content"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	result, err := b.Build(ctx, booklet.BuildRequest{Identifier: "42"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.PDFPath) // content/booklet-about.pdf
//
// # Pipeline
//
// A build runs these stages, each reported in *BuildError on failure:
//
//  1. Resolve the identifier (page id or slug) to a content file and a
//     canonical slug, using id-slug-map.json and the files present
//  2. Select a template: explicit, declared by the record, detected from
//     the record's fields, or the text-photo2 fallback
//  3. Prepare the template context (defaults, repeated groups, images)
//  4. Resolve WordPress media references when a MediaResolver is set
//  5. Validate against schemas/<type>.schema.json when one exists
//  6. Render HTML with html/template and write index.html
//  7. Produce booklet-<slug>.pdf with go-rod, chromedp or an external
//     command, plus a booklet-<id>.pdf copy for numeric identifiers
//
// # Templates
//
// Templates are Descriptors in a Registry. Detection follows declaration
// order, so a record matching two templates gets the earlier one:
//
//	reg, err := booklet.NewRegistry("plain",
//	    booklet.Descriptor{Name: "gallery", Detect: hasGallery, Prepare: prepareGallery},
//	    booklet.Descriptor{Name: "plain", Prepare: preparePlain},
//	)
//
// # Batches
//
// RunBatch builds many identifiers with a bounded number of workers, each
// with its own browser and its own intermediate HTML file. A failed task
// never stops the others:
//
//	tasks, _ := b.Discover()
//	summary := b.RunBatch(ctx, tasks)
//	if err := summary.Err(); err != nil {
//	    log.Fatal(err)
//	}
package booklet
