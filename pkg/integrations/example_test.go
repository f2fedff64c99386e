package integrations_test

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/kgviz/pkg/integrations"
)

func ExampleEnvelope() {
	var env integrations.Envelope
	json.Unmarshal([]byte(`{"ret":0,"msg":"created","data":{"id":7}}`), &env)

	var data struct {
		ID int `json:"id"`
	}
	env.Decode(&data)
	fmt.Println(env.Ret, env.Message(), data.ID)
	// Output:
	// 0 created 7
}

func ExamplePathEscape() {
	fmt.Println(integrations.PathEscape("李白 (诗人)"))
	// Output:
	// %E6%9D%8E%E7%99%BD%20%28%E8%AF%97%E4%BA%BA%29
}
