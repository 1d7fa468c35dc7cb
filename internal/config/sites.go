package config

const (
	articleLinks = "h2 a, h3 a"
	proseContent = ".prose, .article-content, main p"
)

func defaultSites() []SiteConfig {
	return []SiteConfig{
		{
			Name:            "TechCrunch",
			Scanner:         ScannerHTML,
			URL:             "https://techcrunch.com",
			ArticleSelector: `h3 a, h2 a, a[href*="/2026/"], a[href*="/2025/"]`,
			TitleSelector:   "h1, .article__title, .wp-block-post-title",
			ContentSelector: `.article-content, .entry-content, .wp-block-post-content, [data-module="ArticleBody"]`,
		},
		{
			Name:            "The Verge",
			Scanner:         ScannerHTML,
			URL:             "https://www.theverge.com",
			ArticleSelector: "h2 a, .c-entry-box--compact__title a, article h2 a, .duet--content-cards--content-card h2 a",
			TitleSelector:   "h1, .c-page-title",
			ContentSelector: ".c-entry-content, .duet--article--article-body",
		},
		{
			Name:            "Wired",
			Scanner:         ScannerHTML,
			URL:             "https://www.wired.com",
			ArticleSelector: `h3 a, [data-testid="SummaryItemHedLink"], article h3 a, .summary-item a`,
			TitleSelector:   "h1",
			ContentSelector: ".ArticleBodyWrapper, .article-body",
		},
		{
			Name:            "Ars Technica",
			Scanner:         ScannerHTML,
			URL:             "https://arstechnica.com",
			ArticleSelector: "h2 a, .listing h4 a, article header h2 a, .article h2 a",
			TitleSelector:   "h1, .post-title",
			ContentSelector: ".post-content, .article-content, section.post-content",
		},
		{
			Name:            "MIT Technology Review",
			Scanner:         ScannerHTML,
			URL:             "https://www.technologyreview.com",
			ArticleSelector: `a[href*="/2026/"], a[href*="/2025/"], h2 a, h3 a, .story-link a`,
			TitleSelector:   "h1",
			ContentSelector: "main p, section p, .article__body, .content__body",
		},
		{
			Name:            "VentureBeat",
			Scanner:         ScannerHTML,
			URL:             "https://venturebeat.com",
			ArticleSelector: ".ArticleListing__title-link, h3 a, .post-title a, article h2 a",
			TitleSelector:   "h1",
			ContentSelector: "article p, .article-content, .the-content",
		},
		{
			Name:            "Hacker News",
			Scanner:         ScannerHTML,
			URL:             "https://news.ycombinator.com",
			ArticleSelector: ".athing .titleline > a, .athing .title a",
			Aggregator:      true,
		},
		{
			Name:            "Hugging Face Blog",
			Scanner:         ScannerFeed,
			URL:             "https://huggingface.co/blog/feed.xml",
			ContentSelector: ".prose, .blog-content",
		},
		{
			Name:            "OpenAI Blog",
			Scanner:         ScannerBrowser,
			URL:             "https://openai.com/index/",
			ArticleSelector: `a[href*="/index/"], h3 a, h2 a`,
			TitleSelector:   "h1",
			ContentSelector: ".prose, .blog-content",
		},
		{
			Name:            "Anthropic News",
			Scanner:         ScannerHTML,
			URL:             "https://www.anthropic.com/news",
			ArticleSelector: `a[href*="/news/"], ` + articleLinks,
			TitleSelector:   "h1",
			ContentSelector: ".prose, .news-content",
		},
		{
			Name:            "DeepMind Blog",
			Scanner:         ScannerHTML,
			URL:             "https://deepmind.google/discover/blog/",
			ArticleSelector: "article a, " + articleLinks + ", .blog-card a",
			TitleSelector:   "h1",
			ContentSelector: ".article-content, .blog-content",
		},
		{Name: "Meta AI Blog", Scanner: ScannerHTML, URL: "https://ai.meta.com/blog", ArticleSelector: `a[href*="/blog/"]`, TitleSelector: "h1", ContentSelector: proseContent},
		{Name: "Stability AI Blog", Scanner: ScannerHTML, URL: "https://stability.ai/news", ArticleSelector: `a[href*="/news/"]`, TitleSelector: "h1", ContentSelector: proseContent},
		{Name: "Mistral AI Blog", Scanner: ScannerHTML, URL: "https://mistral.ai/news", ArticleSelector: `a[href*="/news/"]`, TitleSelector: "h1", ContentSelector: proseContent},
		{Name: "Cohere Blog", Scanner: ScannerHTML, URL: "https://cohere.com/blog", ArticleSelector: `a[href*="/blog/"]`, TitleSelector: "h1", ContentSelector: proseContent},
		{Name: "Scale AI Blog", Scanner: ScannerHTML, URL: "https://scale.com/blog", ArticleSelector: `a[href*="/blog/"]`, TitleSelector: "h1", ContentSelector: proseContent},
		{Name: "Perplexity AI Blog", Scanner: ScannerHTML, URL: "https://blog.perplexity.ai", ArticleSelector: `a[href*="/blog/"], ` + articleLinks, TitleSelector: "h1", ContentSelector: proseContent},
	}
}
