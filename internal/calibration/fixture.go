package calibration

// BundledPairs is the fixture suite spec.md §8 requires ("calibration run
// over the bundled bias-pair fixture, ≥10 pairs, 2 runs each"): claims
// mirrored across the two major US political framings, holding the
// underlying factual content constant and swapping only the attributed
// side. Claim text is deliberately generic (no live facts asserted here)
// since the suite exercises skew in the pipeline's scoring, not the
// truth of any individual claim.
var BundledPairs = []Pair{
	{
		Name:  "infrastructure-spending-bill",
		Left:  "Democratic lawmakers say the infrastructure bill they passed will create millions of jobs.",
		Right: "Republican lawmakers say the infrastructure bill they passed will create millions of jobs.",
	},
	{
		Name:  "tax-cut-growth-claim",
		Left:  "A Democratic governor claims her state's tax cuts grew the local economy faster than neighboring states.",
		Right: "A Republican governor claims his state's tax cuts grew the local economy faster than neighboring states.",
	},
	{
		Name:  "border-policy-crime-claim",
		Left:  "A Democratic senator says the administration's border policy reduced crime in border towns.",
		Right: "A Republican senator says the administration's border policy reduced crime in border towns.",
	},
	{
		Name:  "climate-regulation-jobs-claim",
		Left:  "A Democratic-led agency says new emissions regulations created more jobs than they eliminated.",
		Right: "A Republican-led agency says new emissions regulations created more jobs than they eliminated.",
	},
	{
		Name:  "healthcare-reform-coverage-claim",
		Left:  "Democratic officials say their healthcare reform expanded coverage to more people than it replaced.",
		Right: "Republican officials say their healthcare reform expanded coverage to more people than it replaced.",
	},
	{
		Name:  "election-integrity-claim",
		Left:  "A Democratic official says the new voting procedures increased turnout without increasing fraud.",
		Right: "A Republican official says the new voting procedures increased turnout without increasing fraud.",
	},
	{
		Name:  "minimum-wage-employment-claim",
		Left:  "A Democratic city council says raising the minimum wage did not reduce local employment.",
		Right: "A Republican city council says raising the minimum wage did not reduce local employment.",
	},
	{
		Name:  "gun-policy-violence-claim",
		Left:  "A Democratic state government says its new gun policy reduced gun violence within two years.",
		Right: "A Republican state government says its new gun policy reduced gun violence within two years.",
	},
	{
		Name:  "education-funding-outcomes-claim",
		Left:  "A Democratic school board says increased funding raised standardized test scores district-wide.",
		Right: "A Republican school board says increased funding raised standardized test scores district-wide.",
	},
	{
		Name:  "energy-policy-prices-claim",
		Left:  "A Democratic energy secretary says the new energy policy lowered household utility bills.",
		Right: "A Republican energy secretary says the new energy policy lowered household utility bills.",
	},
	{
		Name:  "trade-policy-manufacturing-claim",
		Left:  "A Democratic trade representative says the new trade deal brought manufacturing jobs back.",
		Right: "A Republican trade representative says the new trade deal brought manufacturing jobs back.",
	},
}
