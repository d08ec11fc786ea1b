package roam

const (
	scanQuery = `[:find ?uid ?time
 :where
 [?b :block/string ?s]
 [(clojure.string/includes? ?s "![")]
 [?b :block/uid ?uid]
 [(get-else $ ?b :create/time 0) ?time]]`

	blockQuery = `[:find ?s ?title ?time
 :in $ ?uid
 :where
 [?b :block/uid ?uid]
 [?b :block/string ?s]
 [?b :block/page ?p]
 [(get-else $ ?p :node/title "") ?title]
 [(get-else $ ?b :create/time 0) ?time]]`

	parentQuery = `[:find ?s
 :in $ ?uid
 :where
 [?b :block/uid ?uid]
 [?parent :block/children ?b]
 [?parent :block/string ?s]]`

	childrenQuery = `[:find ?order ?s
 :in $ ?uid
 :where
 [?b :block/uid ?uid]
 [?b :block/children ?c]
 [?c :block/string ?s]
 [?c :block/order ?order]]`

	siblingsQuery = `[:find ?order ?s ?own
 :in $ ?uid
 :where
 [?b :block/uid ?uid]
 [?b :block/order ?own]
 [?parent :block/children ?b]
 [?parent :block/children ?sib]
 [(not= ?sib ?b)]
 [?sib :block/order ?order]
 [?sib :block/string ?s]]`
)
