// Package crawler reads the HTML pages of a built site and extracts the
// references they contain.
//
// # Components
//
//   - Parser: extracts a[href], link[href], img[src], script[src] and friends
//     from one page, resolved against the page URL and classified as
//     internal or external to the site
//   - Walker: visits every .html file of an output directory, with optional
//     ignore patterns and a page limit
//
// # Usage
//
//	w := crawler.NewWalker(crawler.WithIgnorePatterns([]string{"/ai-on-eks/search*"}))
//	n, err := w.Walk(ctx, "build", "https://awslabs.github.io/ai-on-eks/", func(p *crawler.Page) error {
//		for _, l := range p.Result.InternalLinks() {
//			// check l.Resolved
//		}
//		return nil
//	})
//
// Nothing here touches the network; external references are classified
// but never fetched.
package crawler
